// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI output. Keep raw codes for ledger keys, JSON
// fields and equality comparisons.
package display

// --- Metrics ---

var metrics = map[string]string{
	"MAE":       "Mean Absolute Error",
	"MSE":       "Mean Squared Error",
	"R2":        "Coefficient of Determination",
	"Accuracy":  "Accuracy",
	"F1":        "Weighted F1",
	"Precision": "Weighted Precision",
	"Recall":    "Weighted Recall",
}

// MetricWithCode returns "Mean Absolute Error (MAE)" format. A metric whose
// name is its key is returned once.
func MetricWithCode(id string) string {
	name, ok := metrics[id]
	if !ok || name == id {
		return id
	}
	return name + " (" + id + ")"
}

// --- Prediction types ---

var predictionTypes = map[string]string{
	"classification": "Classification",
	"regression":     "Regression",
	"c":              "Classification",
	"r":              "Regression",
}

// PredictionType returns the human-readable name for a prediction type or
// its CLI short form.
func PredictionType(code string) string {
	if name, ok := predictionTypes[code]; ok {
		return name
	}
	return code
}
