// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"

	"github.com/olegiv/blogify/internal/service"
)

// maxContactBody limits the size of a contact form submission.
const maxContactBody = 16 << 10

// ContactResponse acknowledges a stored contact message.
type ContactResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// SubmitContact handles POST /contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody)).Decode(&in); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	m, err := h.contact.Submit(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, "Contact message", err)
		return
	}
	WriteJSON(w, http.StatusCreated, Response{
		Data: ContactResponse{ID: m.ID, Message: "Message sent successfully. We will get back to you soon."},
		Meta: meta(r),
	})
}
