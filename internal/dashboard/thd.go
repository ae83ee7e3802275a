package dashboard

import (
	"fmt"
	"math"
)

// THDReadings are the seven THD figures of a panel, in percent.
type THDReadings struct {
	Total   float64    `json:"total"`
	Current [3]float64 `json:"current"`
	Voltage [3]float64 `json:"voltage"`
}

// THDRating grades overall harmonic distortion.
type THDRating string

const (
	RatingExcellent THDRating = "excellent"
	RatingGood      THDRating = "good"
	RatingFair      THDRating = "fair"
	RatingPoor      THDRating = "poor"
)

// imbalanceLimit is the current THD spread between phases that gets flagged.
const imbalanceLimit = 1.0

// THDAnalysis is the result of AnalyzeTHD.
type THDAnalysis struct {
	Readings          THDReadings `json:"readings"`
	AvgCurrent        float64     `json:"avg_current"`
	MaxCurrent        float64     `json:"max_current"`
	MaxVoltage        float64     `json:"max_voltage"`
	Imbalance         float64     `json:"imbalance"`
	ImbalanceDetected bool        `json:"imbalance_detected"`
	Rating            THDRating   `json:"rating"`
	Recommendations   []string    `json:"recommendations"`
}

// AnalyzeTHD grades the readings: poor above 8% current or 5% voltage THD,
// fair above 5%/3%, good above 3%/2%, excellent otherwise.
func AnalyzeTHD(r THDReadings) THDAnalysis {
	maxI := max(r.Current[0], r.Current[1], r.Current[2])
	minI := min(r.Current[0], r.Current[1], r.Current[2])
	maxU := max(r.Voltage[0], r.Voltage[1], r.Voltage[2])

	a := THDAnalysis{
		Readings:   r,
		AvgCurrent: (r.Current[0] + r.Current[1] + r.Current[2]) / 3,
		MaxCurrent: maxI,
		MaxVoltage: maxU,
		Imbalance:  math.Abs(maxI - minI),
	}

	switch {
	case maxI > 8 || maxU > 5:
		a.Rating = RatingPoor
	case maxI > 5 || maxU > 3:
		a.Rating = RatingFair
	case maxI > 3 || maxU > 2:
		a.Rating = RatingGood
	default:
		a.Rating = RatingExcellent
	}

	switch a.Rating {
	case RatingExcellent:
		a.Recommendations = []string{"Power quality is very good. Keep the current operating conditions."}
	case RatingGood:
		a.Recommendations = []string{"Power quality is good. Monitor periodically to keep it stable."}
	default:
		a.Recommendations = []string{
			"Inspect non-linear loads in the installation.",
			"Consider installing a harmonic filter.",
		}
	}

	if a.Imbalance > imbalanceLimit {
		a.ImbalanceDetected = true
		a.Recommendations = append(a.Recommendations,
			fmt.Sprintf("THD imbalance between phases detected (%.2f%%).", a.Imbalance))
	}

	return a
}
