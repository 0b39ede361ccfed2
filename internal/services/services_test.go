package services

import (
	"fmt"
	"testing"

	"github.com/dmarkowski/offers-app/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Role{}, &models.User{}, &models.Company{}, &models.Client{},
		&models.Seller{}, &models.Offer{}, &models.OfferItem{}, &models.Document{},
	))
	return db
}

// seedOfferFixtures creates the minimal graph an offer needs.
func seedOfferFixtures(t *testing.T, db *gorm.DB) (user models.User, seller models.Seller, client models.Client) {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where(models.Role{Name: "user"}).FirstOrCreate(&role).Error)
	require.NoError(t, db.Where(models.User{Email: "creator@test"}).
		Attrs(models.User{Password: "x", FirstName: "Jan", LastName: "Kowalski", RoleID: role.ID}).
		FirstOrCreate(&user).Error)
	company := models.Company{Name: "ClientCo", TaxID: "5260001246"}
	require.NoError(t, db.Create(&company).Error)
	client = models.Client{CompanyID: company.ID, FirstName: "Anna", LastName: "Nowak", Email: "anna@clientco.pl", Position: "CTO"}
	require.NoError(t, db.Create(&client).Error)
	seller = models.Seller{Name: "SellerCo Sp. z o.o.", TaxID: "1180000231", Address: "ul. Prosta 1, Warszawa", BankAccount: "PL61109010140000071219812874"}
	require.NoError(t, db.Create(&seller).Error)
	return user, seller, client
}

func itemInput(desc string, qty int, price string) OfferItemInput {
	return OfferItemInput{Description: desc, Quantity: qty, PricePerUnit: mustDecimal(price)}
}
