package handler

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"lucent-shop-api/internal/service"
	"lucent-shop-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

type AssetHandler struct {
	storageDir string
}

func NewAssetHandler(storageDir string) *AssetHandler {
	return &AssetHandler{storageDir: storageDir}
}

// Download serves a stored voice pack for a valid signed token
// GET /api/v1/assets/download?token=...
func (h *AssetHandler) Download(c *fiber.Ctx) error {
	claims, err := jwt.ValidateAssetToken(c.Query("token"))
	if err != nil {
		return handleError(c, service.ErrDownloadNotAvailable)
	}

	path, err := service.ResolveStoragePath(h.storageDir, claims.Path)
	if err != nil {
		log.Printf("Asset token for item %s points outside storage: %q", claims.ItemID, claims.Path)
		return handleError(c, service.ErrDownloadNotAvailable)
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return fail(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "파일을 찾을 수 없습니다.")
	}
	if err != nil {
		return handleError(c, err)
	}

	c.Set(fiber.HeaderCacheControl, "private, no-store")
	return c.Download(path, filepath.Base(path))
}
