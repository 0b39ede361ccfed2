package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmarkowski/offers-app/internal/auth"
	"github.com/dmarkowski/offers-app/internal/httpx"
	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/pdf"
	"github.com/dmarkowski/offers-app/internal/services"
	"github.com/dmarkowski/offers-app/internal/storage"

	"gorm.io/gorm"
)

const maxArchiveUpload = 10 << 20 // 10 MiB

type OfferHandler struct {
	DB        *gorm.DB
	Svc       *services.OfferService
	Lifecycle *services.LifecycleService
	Files     *storage.Store
}

func NewOfferHandler(db *gorm.DB, svc *services.OfferService, lc *services.LifecycleService, files *storage.Store) *OfferHandler {
	return &OfferHandler{DB: db, Svc: svc, Lifecycle: lc, Files: files}
}

// List: GET /offers?status=&limit=&page=
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	offers, total, err := h.Svc.List(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": offers, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /offers
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var in services.OfferInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	offer, err := h.Svc.Create(r.Context(), in, uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, offer)
}

// Get: GET /offers/{id}
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	offer, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

// Update: PUT /offers/{id}
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.OfferInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	offer, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, offer)
}

// Delete: DELETE /offers/{id}, abandoned drafts only.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddItem: POST /offers/{id}/items
func (h *OfferHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.OfferItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	item, err := h.Svc.AddItem(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

// UpdateItem: PUT /offers/{id}/items/{itemID}
func (h *OfferHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := namedIDParam(r, "itemID")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var in services.OfferItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Svc.UpdateItem(r.Context(), itemID, in); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// RemoveItem: DELETE /offers/{id}/items/{itemID}
func (h *OfferHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := namedIDParam(r, "itemID")
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), itemID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Status: POST /offers/{id}/status {"action": "submit", "reason": "..."}
func (h *OfferHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var req struct {
		Action string `json:"action"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	offer, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	actor := actorFrom(r, h.DB)
	result, err := h.Lifecycle.Apply(r.Context(), offer, services.StatusAction(req.Action), actor, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// PDF: GET /offers/{id}/pdf streams the archived document when one
// exists, otherwise renders the offer.
func (h *OfferHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	offer, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var doc models.Document
	err = h.DB.Where("owner_type = ? AND owner_id = ? AND type = ?", "Offer", offer.ID, models.DocumentArchive).
		Order("id desc").First(&doc).Error
	if err == nil {
		rc, openErr := h.Files.Open(doc.Path)
		if openErr == nil {
			defer rc.Close()
			writePDFHeaders(w, offer.OfferNumber)
			_, _ = io.Copy(w, rc)
			return
		}
		// archived file lost on disk: fall through to rendering
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	data := h.buildPDFData(offer)
	out, genErr := pdf.OfferPDF(data)
	if genErr != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	writePDFHeaders(w, offer.OfferNumber)
	_, _ = w.Write(out)
}

func (h *OfferHandler) buildPDFData(offer *models.Offer) pdf.OfferData {
	items := make([]pdf.LineItem, 0, len(offer.Items))
	for _, it := range offer.Items {
		items = append(items, pdf.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.PricePerUnit.StringFixed(2),
			Total:       it.LineTotal().StringFixed(2),
		})
	}
	var logoPath string
	if offer.Seller.LogoPath != "" {
		// missing logo file degrades to an unbranded PDF
		if p, err := h.Files.Path(offer.Seller.LogoPath); err == nil {
			logoPath = p
		}
	}
	return pdf.OfferData{
		OfferNumber: offer.OfferNumber,
		CreatedDate: offer.CreatedAt.Format("2006-01-02"),
		ValidUntil:  offer.CreatedAt.AddDate(0, 0, offer.ValidityDays).Format("2006-01-02"),
		Description: offer.Description,
		Seller: pdf.SellerData{
			Name:        offer.Seller.Name,
			TaxID:       offer.Seller.TaxID,
			Address:     offer.Seller.Address,
			Email:       offer.Seller.Email,
			Phone:       offer.Seller.Phone,
			BankAccount: offer.Seller.BankAccount,
			LogoPath:    logoPath,
		},
		Client: pdf.ClientData{
			Name:     strings.TrimSpace(offer.Client.FirstName + " " + offer.Client.LastName),
			Company:  offer.Client.Company.Name,
			Email:    offer.Client.Email,
			Position: offer.Client.Position,
		},
		Items:           items,
		Total:           offer.TotalPrice.StringFixed(2),
		PaymentMethod:   string(offer.PaymentMethod),
		PaymentDeadline: fmt.Sprintf("%d days", offer.PaymentDeadlineDays),
	}
}

func writePDFHeaders(w http.ResponseWriter, offerNumber string) {
	safe := strings.ReplaceAll(offerNumber, "/", "_")
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="Offer_`+safe+`.pdf"`)
}

// Archive: POST /offers/{id}/archive accepts a multipart upload of a historical
// PDF that takes precedence over rendered output.
func (h *OfferHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	offer, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxArchiveUpload); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_upload", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "missing_file", nil)
		return
	}
	defer file.Close()
	ref, err := h.Files.Store(header.Filename, file)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "store_failed", nil)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	doc := models.Document{
		OwnerType:  "Offer",
		OwnerID:    offer.ID,
		Type:       models.DocumentArchive,
		Name:       header.Filename,
		Path:       ref,
		MimeType:   header.Header.Get("Content-Type"),
		UploadedBy: uid,
	}
	if err := h.DB.Create(&doc).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "store_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": doc.ID, "name": doc.Name})
}
