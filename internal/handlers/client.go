package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dmarkowski/offers-app/internal/httpx"
	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/validation"

	"gorm.io/gorm"
)

type ClientHandler struct{ DB *gorm.DB }

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

type clientRequest struct {
	CompanyID uint   `json:"company_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Position  string `json:"position"`
}

func (req *clientRequest) validate(db *gorm.DB) validation.Violations {
	v := validation.Violations{}
	validation.RequiredID("company_id", req.CompanyID, v)
	validation.Required("first_name", req.FirstName, v)
	validation.Required("last_name", req.LastName, v)
	if req.CompanyID != 0 {
		var count int64
		if err := db.Model(&models.Company{}).Where("id = ?", req.CompanyID).Count(&count).Error; err != nil || count == 0 {
			v["company_id"] = "not_found"
		}
	}
	return v
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	q := h.DB.Model(&models.Client{})
	var total int64
	q.Count(&total)
	var clients []models.Client
	if err := q.Preload("Company").Order("last_name, id").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(h.DB); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	client := models.Client{
		CompanyID: req.CompanyID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Position:  req.Position,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

// Get: GET /clients/{id}
func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var client models.Client
	if err := h.DB.Preload("Company").First(&client, id).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Update: PUT /clients/{id}
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var client models.Client
	if err := h.DB.First(&client, id).Error; err != nil {
		writeServiceError(w, err)
		return
	}
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(h.DB); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	client.CompanyID = req.CompanyID
	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.Email = req.Email
	client.Phone = req.Phone
	client.Position = req.Position
	if err := h.DB.Save(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

type CompanyHandler struct{ DB *gorm.DB }

func NewCompanyHandler(db *gorm.DB) *CompanyHandler { return &CompanyHandler{DB: db} }

// List: GET /companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	var total int64
	h.DB.Model(&models.Company{}).Count(&total)
	var companies []models.Company
	if err := h.DB.Order("name, id").Limit(limit).Offset(offset).Find(&companies).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_companies", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": companies, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		TaxID   string `json:"tax_id"`
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("name", req.Name, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	company := models.Company{Name: req.Name, TaxID: req.TaxID, Address: req.Address}
	if err := h.DB.Create(&company).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_company", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, company)
}
