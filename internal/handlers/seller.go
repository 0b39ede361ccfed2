package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dmarkowski/offers-app/internal/httpx"
	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/storage"
	"github.com/dmarkowski/offers-app/internal/validation"

	"gorm.io/gorm"
)

const maxLogoUpload = 2 << 20 // 2 MiB

type SellerHandler struct {
	DB    *gorm.DB
	Files *storage.Store
}

func NewSellerHandler(db *gorm.DB, files *storage.Store) *SellerHandler {
	return &SellerHandler{DB: db, Files: files}
}

type sellerRequest struct {
	Name        string `json:"name"`
	TaxID       string `json:"tax_id"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BankAccount string `json:"bank_account"`
}

func (req *sellerRequest) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	validation.Required("tax_id", req.TaxID, v)
	return v
}

// List: GET /sellers
func (h *SellerHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	var total int64
	h.DB.Model(&models.Seller{}).Count(&total)
	var sellers []models.Seller
	if err := h.DB.Order("name, id").Limit(limit).Offset(offset).Find(&sellers).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_sellers", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": sellers, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /sellers
func (h *SellerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	seller := models.Seller{
		Name:        req.Name,
		TaxID:       req.TaxID,
		Address:     req.Address,
		Email:       req.Email,
		Phone:       req.Phone,
		BankAccount: req.BankAccount,
	}
	if err := h.DB.Create(&seller).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_seller", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, seller)
}

// Get: GET /sellers/{id}
func (h *SellerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var seller models.Seller
	if err := h.DB.First(&seller, id).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, seller)
}

// Update: PUT /sellers/{id}
func (h *SellerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var seller models.Seller
	if err := h.DB.First(&seller, id).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	var req sellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	seller.Name = req.Name
	seller.TaxID = req.TaxID
	seller.Address = req.Address
	seller.Email = req.Email
	seller.Phone = req.Phone
	seller.BankAccount = req.BankAccount
	if err := h.DB.Save(&seller).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_seller", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, seller)
}

// UploadLogo: POST /sellers/{id}/logo stores a multipart image and
// records it on the seller for PDF branding.
func (h *SellerHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var seller models.Seller
	if err := h.DB.First(&seller, id).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxLogoUpload); err != nil {
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
	if err := h.DB.Model(&seller).UpdateColumn("logo_path", ref).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "store_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"logo_path": ref})
}
