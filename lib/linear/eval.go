package linear

import "fmt"

// Metrics is a confusion matrix with derived scores at a decision threshold, positive class is ai
type Metrics struct {
	Threshold float64 `json:"threshold"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	TN        int     `json:"tn"`
	FN        int     `json:"fn"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Evaluate compares PredictProba >= threshold against labels
func Evaluate(m Model, samples []Sample, threshold float64) Metrics {
	res := Metrics{Threshold: threshold}
	for _, s := range samples {
		predicted := m.PredictProba(s.X) >= threshold
		switch {
		case predicted && s.Y:
			res.TP++
		case predicted && !s.Y:
			res.FP++
		case !predicted && !s.Y:
			res.TN++
		default:
			res.FN++
		}
	}

	res.Accuracy = safeDiv(res.TP+res.TN, len(samples))
	res.Precision = safeDiv(res.TP, res.TP+res.FP)
	res.Recall = safeDiv(res.TP, res.TP+res.FN)
	if res.Precision+res.Recall > 0 {
		res.F1 = 2 * res.Precision * res.Recall / (res.Precision + res.Recall)
	}
	return res
}

// Sweep evaluates the model at each of thresholds
func Sweep(m Model, samples []Sample, thresholds []float64) []Metrics {
	res := make([]Metrics, 0, len(thresholds))
	for _, th := range thresholds {
		res = append(res, Evaluate(m, samples, th))
	}
	return res
}

func (m Metrics) String() string {
	return fmt.Sprintf("threshold=%.2f acc=%.4f precision=%.4f recall=%.4f f1=%.4f tp=%d fp=%d tn=%d fn=%d",
		m.Threshold, m.Accuracy, m.Precision, m.Recall, m.F1, m.TP, m.FP, m.TN, m.FN)
}

func safeDiv(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
