package services

import "github.com/gzfs/greenlit/internal/models"

// Built-in questionnaire categories, drawn from the SASB software & IT
// services disclosure topics. Plugin-supplied categories are appended after
// these in listing order.

var builtinOrder = []string{
	"Environmental Footprint",
	"Data Privacy & Security",
	"Technology Disruptions",
}

var builtinCategories = map[string]models.Category{
	"Environmental Footprint": {
		Title: "Environmental Impact",
		Questions: []models.Question{
			{
				ID:   "total_energy",
				Text: "Total energy consumed",
				Type: "number",
				Unit: "Gigajoules (GJ)",
				Code: "TC-SI-130a.1",
			},
			{
				ID:   "grid_electricity",
				Text: "Percentage of total energy from grid electricity",
				Type: "percentage",
				Unit: "Percentage (%)",
				Code: "TC-SI-130a.1",
			},
			{
				ID:   "environmental_planning",
				Text: "Discussion of the integration of environmental considerations into strategic planning for data centre needs",
				Type: "text",
				Unit: "n/a",
				Code: "TC-SI-130a.3",
			},
		},
	},
	"Data Privacy & Security": {
		Title: "Privacy Metrics",
		Questions: []models.Question{
			{
				ID:   "secondary_users",
				Text: "Number of users whose information is used for secondary purposes",
				Type: "number",
				Unit: "Number",
				Code: "TC-SI-220a.2",
			},
			{
				ID:   "privacy_losses",
				Text: "Total amount of monetary losses due to legal proceedings associated with user privacy",
				Type: "number",
				Unit: "Currency",
				Code: "TC-SI-220a.3",
			},
			{
				ID:   "data_breaches",
				Text: "Number of data breaches",
				Type: "number",
				Unit: "Number",
				Code: "TC-SI-230a.1",
			},
			{
				ID:   "affected_users",
				Text: "Number of users affected by data breaches",
				Type: "number",
				Unit: "Number",
				Code: "TC-SI-230a.1",
			},
		},
	},
	"Technology Disruptions": {
		Title: "Service Reliability",
		Questions: []models.Question{
			{
				ID:   "service_disruptions",
				Text: "Number of service disruptions",
				Type: "number",
				Unit: "Number",
				Code: "TC-SI-550a.1",
			},
			{
				ID:   "customer_downtime",
				Text: "Total customer downtime",
				Type: "number",
				Unit: "Days",
				Code: "TC-SI-550a.1",
			},
			{
				ID:   "continuity_risks",
				Text: "Description of business continuity risks related to disruptions of operations",
				Type: "text",
				Unit: "n/a",
				Code: "TC-SI-550a.2",
			},
		},
	},
}
