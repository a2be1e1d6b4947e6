package data

import (
	"log"

	"github.com/civicworks/legisrev/src/api/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed populates an empty database with a working group and one bill so a
// fresh deployment has something to review. It is a no-op once any user
// exists.
func Seed(db *gorm.DB) error {
	var userCount int64
	if err := db.Model(&types.User{}).Count(&userCount).Error; err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	log.Printf("Seeding empty database")

	hash := func(pw string) string {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("bcrypt: %v", err)
		}
		return string(h)
	}

	users := []types.User{
		{Email: "admin@legisrev.local", PasswordHash: hash("admin123"), FullName: "Default Administrator", Organization: "Ministry of Agrarian Policy", Role: types.RoleAdmin},
		{Email: "member1@legisrev.local", PasswordHash: hash("member123"), FullName: "First Member", Organization: "Farmers Association", Role: types.RoleMember},
		{Email: "member2@legisrev.local", PasswordHash: hash("member123"), FullName: "Second Member", Organization: "Fisheries Union", Role: types.RoleMember},
		{Email: "observer@legisrev.local", PasswordHash: hash("observer123"), FullName: "Default Observer", Organization: "Independent Expert", Role: types.RoleObserver},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			return err
		}
	}

	bill := types.Bill{
		Title:              "On Fisheries and Commercial Catch",
		RegistrationNumber: "8119",
		Description:        "Draft law amending the Law on Fisheries, Commercial Catch of Aquatic Bioresources and Their Protection",
		Status:             types.BillActive,
	}
	if err := db.Create(&bill).Error; err != nil {
		return err
	}

	currentLaw := "Aquaculture is an economic activity aimed at breeding and growing aquatic bioresources under controlled conditions."
	articles := []types.Article{
		{
			BillID:         bill.ID,
			ArticleNumber:  "Article 1",
			Title:          "Definitions",
			CurrentLawText: &currentLaw,
			DraftBillText:  "Aquaculture is the artificial breeding and growing of aquatic bioresources in purpose-built or adapted water bodies for the production of aquaculture products.",
			OrderIndex:     1,
		},
		{
			BillID:        bill.ID,
			ArticleNumber: "Article 24-1",
			Title:         "Licensing of commercial catch",
			DraftBillText: "Commercial catch of aquatic bioresources is carried out under a special permit issued by the central executive body for a term of five years.",
			OrderIndex:    2,
		},
		{
			BillID:        bill.ID,
			ArticleNumber: "Article 31",
			Title:         "State support of aquaculture",
			DraftBillText: "Entities engaged in aquaculture are entitled to state support under the programs approved by the Cabinet of Ministers.",
			OrderIndex:    3,
		},
	}
	for i := range articles {
		if err := db.Create(&articles[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("Seeded %d users, 1 bill, %d articles", len(users), len(articles))
	return nil
}
