package mockdata

import "time"

// MonthLayout is the month label format shared with the aggregation engine.
const MonthLayout = "Jan-2006"

// Fixed catalogs the generator draws from.
var (
	Companies = []string{
		"Children's Hospital",
		"UnityPoint Health",
		"Virginia Health",
		"National Fuel",
		"Apparel Retailer",
	}

	VendorNames = []string{
		"McKesson",
		"Cardinal Health",
		"Medline",
		"Stryker",
		"Johnson & Johnson",
		"Siemens Healthineers",
		"GE Healthcare",
		"Philips",
		"Baxter",
		"Boston Scientific",
	}

	InspectorNames = []string{
		"Duplicate Detector",
		"Anomaly Hunter",
		"Fraud Watchdog",
		"Vendor Validator",
	}

	Operators = []string{
		"Alice Smith",
		"Bob Jones",
		"Charlie Brown",
		"Diana Prince",
	}

	Sources = []InvoiceSource{SourceOCR, SourceEDI, SourceManual}
)

// Generation ranges.
const (
	DefaultInvoiceCount = 200
	firstInvoiceNumber  = 1000

	minVendorSpend  = 100000
	maxVendorSpend  = 5000000
	minInvoiceTotal = 100
	maxInvoiceTotal = 50000
	minDetected     = 50000
	maxDetected     = 500000

	minConfidence = 0.70
	maxConfidence = 0.99

	historyMonths  = 6
	forecastMonths = 2

	spikeRiskThreshold = 80
	confidenceBand     = 0.10
)

// invoiceEpoch is the earliest invoice date.
var invoiceEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
