package store

import (
	"time"

	"carewatch/internal/catalog/models"
	"carewatch/pkg/domain"
)

// SeedInstitutions returns the institutions bundled with the platform.
func SeedInstitutions() []models.Institution {
	return []models.Institution{
		{
			ID:             "O001",
			Name:           "Asha Kiran Children's Home",
			Location:       "Bangalore, Karnataka",
			ImageURL:       "https://picsum.photos/seed/asha/600/400",
			Description:    "Asha Kiran provides a safe and nurturing environment for orphaned and abandoned children, focusing on education and holistic development.",
			Verified:       true,
			RegistrationID: "WCD/KA/2010/12345",
			ChildrenCount:  52,
			Needs: []models.Need{
				{Item: "Rice (kg)", Quantity: 100, Priority: models.PriorityHigh},
				{Item: "School Notebooks", Quantity: 200, Priority: models.PriorityHigh},
				{Item: "Winter Blankets", Quantity: 60, Priority: models.PriorityMedium},
			},
			FundUtilization: []models.UtilizationShare{
				{Category: "Education", Percentage: 35},
				{Category: "Nutrition", Percentage: 30},
				{Category: "Healthcare", Percentage: 15},
				{Category: "Operations", Percentage: 20},
			},
		},
		{
			ID:             "O002",
			Name:           "Bal Vikas Trust",
			Location:       "Pune, Maharashtra",
			ImageURL:       "https://picsum.photos/seed/balvikas/600/400",
			Description:    "Bal Vikas is dedicated to the care of children with special needs, offering specialized therapy, education, and vocational training.",
			Verified:       true,
			RegistrationID: "WCD/MH/2015/67890",
			ChildrenCount:  35,
			Needs: []models.Need{
				{Item: "Medical Supplies", Quantity: 50, Priority: models.PriorityHigh},
				{Item: "Nutritional Supplements", Quantity: 100, Priority: models.PriorityHigh},
				{Item: "Therapy Equipment", Quantity: 5, Priority: models.PriorityMedium},
			},
			FundUtilization: []models.UtilizationShare{
				{Category: "Specialized Care", Percentage: 40},
				{Category: "Nutrition", Percentage: 25},
				{Category: "Education", Percentage: 20},
				{Category: "Infrastructure", Percentage: 15},
			},
		},
		{
			ID:             "O003",
			Name:           "Naya Savera Foundation",
			Location:       "Jaipur, Rajasthan",
			ImageURL:       "https://picsum.photos/seed/naya/600/400",
			Description:    "Naya Savera focuses on rescuing and rehabilitating children from vulnerable situations, with a strong emphasis on mental health and counseling.",
			Verified:       false,
			RegistrationID: "WCD/RJ/2018/11223",
			ChildrenCount:  41,
			Needs: []models.Need{
				{Item: "Laptops for e-learning", Quantity: 10, Priority: models.PriorityHigh},
				{Item: "Sports Equipment", Quantity: 20, Priority: models.PriorityMedium},
				{Item: "Story Books (Hindi)", Quantity: 150, Priority: models.PriorityLow},
			},
			FundUtilization: []models.UtilizationShare{
				{Category: "Education", Percentage: 40},
				{Category: "Mental Health", Percentage: 25},
				{Category: "Nutrition", Percentage: 20},
				{Category: "Recreation", Percentage: 15},
			},
		},
	}
}

// SeedInspections returns the bundled inspection reports.
func SeedInspections() []models.InspectionReport {
	return []models.InspectionReport{
		{
			ID:            "I001",
			InstitutionID: "O001",
			InspectorID:   "Insp01",
			Date:          domain.Date{Year: 2023, Month: time.September, Day: 20},
			Status:        models.InspectionCompleted,
			Summary:       "Asha Kiran maintains excellent standards of hygiene and safety. Nutrition program is well-managed. Minor improvements suggested for record-keeping.",
			Scores:        models.Scores{Hygiene: 95, Safety: 98, Nutrition: 92, Compliance: 88},
		},
		{
			ID:            "I002",
			InstitutionID: "O002",
			InspectorID:   "Insp02",
			Date:          domain.Date{Year: 2023, Month: time.October, Day: 5},
			Status:        models.InspectionCompleted,
			Summary:       "Bal Vikas provides exceptional specialized care. Facilities are well-maintained. Documentation is in order.",
			Scores:        models.Scores{Hygiene: 90, Safety: 95, Nutrition: 94, Compliance: 96},
		},
		{
			ID:            "I003",
			InstitutionID: "O003",
			InspectorID:   "Insp01",
			Date:          domain.Date{Year: 2023, Month: time.October, Day: 25},
			Status:        models.InspectionPending,
			Summary:       "Scheduled inspection to review compliance status and facilities.",
		},
	}
}
