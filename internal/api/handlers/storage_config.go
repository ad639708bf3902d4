// storage_config.go — обработчики конфигурации зон хранения.
package handlers

import (
	"net/http"

	"github.com/botanico/correspondencia/mailroom-module/internal/service"
)

// storageConfigRequest — тело PUT /storage-config.
type storageConfigRequest struct {
	MaxPackages               int `json:"maxPackages"`
	MaxLetters                int `json:"maxLetters"`
	PackagesWarningThreshold  int `json:"packagesWarningThreshold"`
	PackagesCriticalThreshold int `json:"packagesCriticalThreshold"`
	LettersWarningThreshold   int `json:"lettersWarningThreshold"`
	LettersCriticalThreshold  int `json:"lettersCriticalThreshold"`
}

// GetStorageConfig — GET /storage-config. Только персонал;
// при отсутствии записи возвращаются значения по умолчанию.
func (h *APIHandler) GetStorageConfig(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	cfg, err := h.storageConfig.Get(r.Context(), actor)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStorageConfigDTO(*cfg))
}

// UpdateStorageConfig — PUT /storage-config. Только admin/super_admin.
func (h *APIHandler) UpdateStorageConfig(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}

	var req storageConfigRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cfg, err := h.storageConfig.Update(r.Context(), actor, service.StorageConfigInput{
		MaxPackages:               req.MaxPackages,
		MaxLetters:                req.MaxLetters,
		PackagesWarningThreshold:  req.PackagesWarningThreshold,
		PackagesCriticalThreshold: req.PackagesCriticalThreshold,
		LettersWarningThreshold:   req.LettersWarningThreshold,
		LettersCriticalThreshold:  req.LettersCriticalThreshold,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStorageConfigDTO(*cfg))
}
