package translation

import "github.com/signbridge/signbridge-core/internal/protocol"

// Classifier names a gesture from one hand's landmarks.
type Classifier interface {
	Classify(landmarks []protocol.Landmark) (gesture string, confidence float64, ok bool)
}

const (
	wrist     = 0
	thumbTip  = 4
	indexTip  = 8
	middleTip = 12
	ringTip   = 16
	pinkyTip  = 20
)

// HeuristicClassifier treats a finger as extended when its tip sits above the wrist
// in image coordinates (smaller y). It is a placeholder for a trained model.
type HeuristicClassifier struct{}

func (HeuristicClassifier) Classify(lm []protocol.Landmark) (string, float64, bool) {
	if len(lm) <= pinkyTip {
		return "", 0, false
	}
	w := lm[wrist].Y
	up := func(i int) bool { return lm[i].Y < w }
	thumb, index, middle, ring, pinky := up(thumbTip), up(indexTip), up(middleTip), up(ringTip), up(pinkyTip)

	switch {
	case thumb && index && middle && ring && pinky:
		return "hello", 0.85, true
	case !thumb && index && !middle && !ring && !pinky:
		return "one", 0.8, true
	case !thumb && index && middle && !ring && !pinky:
		return "two", 0.8, true
	case !thumb && index && middle && ring && !pinky:
		return "three", 0.75, true
	case !thumb && index && middle && ring && pinky:
		return "four", 0.75, true
	case thumb && index && !middle && !ring && pinky:
		return "love", 0.7, true
	case !thumb && !index && !middle && !ring && !pinky:
		return "yes", 0.6, true
	}
	return "", 0, false
}
