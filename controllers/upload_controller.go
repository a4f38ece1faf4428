package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/tripjournal/services"
	"github.com/cppla/tripjournal/utils"
)

// UploadController issues signatures for direct browser uploads to the media provider.
type UploadController struct {
	signer *services.UploadSigner
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(signer *services.UploadSigner) *UploadController {
	return &UploadController{signer: signer}
}

// Signature returns a fresh upload signature.
func (u *UploadController) Signature(ctx *gin.Context) {
	sig, err := u.signer.Issue()
	if err != nil {
		if errors.Is(err, services.ErrSignerUnavailable) {
			utils.Sugar.Error("upload signature requested but media provider credentials are not configured")
			utils.Error(ctx, http.StatusInternalServerError, 50002, "upload signing unavailable")
			return
		}
		respondError(ctx, "sign upload", err)
		return
	}
	ctx.Header("Cache-Control", "no-store")
	utils.Success(ctx, sig)
}
