// attachments.go — обработчики вложений: multipart-загрузка, список,
// удаление, подписанные URL для просмотра.
package handlers

import (
	"io"
	"net/http"

	apierrors "github.com/botanico/correspondencia/mailroom-module/internal/api/errors"
)

// maxMultipartMemory — сколько байт multipart-формы держится в памяти
// до сброса во временные файлы.
const maxMultipartMemory = 10 << 20

// ListAttachments — GET /correspondence/{id}/attachments.
func (h *APIHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	items, err := h.attachments.List(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttachmentDTOs(items))
}

// UploadAttachment — POST /correspondence/{id}/attachments.
// Принимает multipart-форму с полем file. Размер проверяется
// сервисным слоем до обращения к хранилищу.
func (h *APIHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		apierrors.ValidationError(w, "Formulario multipart inválido: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Falta el campo file en el formulario")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apierrors.ValidationError(w, "No se pudo leer el archivo: "+err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	saved, err := h.attachments.Upload(r.Context(), actor, id, header.Filename, contentType, data)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttachmentDTO(*saved))
}

// DeleteAttachment — DELETE /attachments/{id}.
func (h *APIHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.attachments.Delete(r.Context(), actor, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachmentSignedURL — GET /attachments/{id}/signed-url.
// Возвращает временную ссылку на просмотр файла.
func (h *APIHandler) AttachmentSignedURL(w http.ResponseWriter, r *http.Request) {
	actor := h.actor(w, r)
	if actor == nil {
		return
	}
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	url, err := h.attachments.SignedURL(r.Context(), actor, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if url == "" {
		apierrors.DependencyFailure(w, "El archivo no puede mostrarse en este momento")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
