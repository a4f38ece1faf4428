package metrics

import (
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRecordPostWrite(t *testing.T) {
	c := qt.New(t)

	before := testutil.ToFloat64(PostWrites.WithLabelValues("create", "ok"))
	RecordPostWrite("create", "ok")
	RecordPostWrite("create", "ok")
	c.Assert(testutil.ToFloat64(PostWrites.WithLabelValues("create", "ok")), qt.Equals, before+2)
}

func TestRecordDBQueryIgnoresMissingRows(t *testing.T) {
	c := qt.New(t)

	base := testutil.ToFloat64(DBQueryErrors.WithLabelValues("query", "sessions"))
	RecordDBQuery("query", "sessions", time.Millisecond, gorm.ErrRecordNotFound)
	c.Assert(testutil.ToFloat64(DBQueryErrors.WithLabelValues("query", "sessions")), qt.Equals, base)

	RecordDBQuery("query", "sessions", time.Millisecond, errors.New("disk I/O error"))
	c.Assert(testutil.ToFloat64(DBQueryErrors.WithLabelValues("query", "sessions")), qt.Equals, base+1)
}

func TestInstrumentGorm(t *testing.T) {
	c := qt.New(t)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	c.Assert(err, qt.IsNil)
	sqlDB, err := db.DB()
	c.Assert(err, qt.IsNil)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	type widget struct {
		ID   uint
		Name string
	}
	c.Assert(db.AutoMigrate(&widget{}), qt.IsNil)
	c.Assert(InstrumentGorm(db), qt.IsNil)

	before := testutil.CollectAndCount(DBQueryDuration)
	c.Assert(db.Create(&widget{Name: "gondola"}).Error, qt.IsNil)
	var got []widget
	c.Assert(db.Find(&got).Error, qt.IsNil)

	c.Assert(got, qt.HasLen, 1)
	c.Assert(testutil.CollectAndCount(DBQueryDuration) >= before+2, qt.IsTrue)
}
