package vocabulary

func kf(handshape, location, movement string) Keyframe {
	return Keyframe{Handshape: handshape, Location: location, Movement: movement, Orientation: "palm-out"}
}

var builtinGestures = []Gesture{
	// greetings
	{Name: "hello", Category: "greetings", Description: "Open palm moves outward from the forehead", Phrase: "Hello", Confidence: 0.9,
		Animation: []Keyframe{kf("open", "forehead", ""), kf("open", "forehead-side", "salute-out"), kf("open", "shoulder", "")}},
	{Name: "goodbye", Category: "greetings", Description: "Open hand waves side to side", Phrase: "Goodbye", Confidence: 0.85,
		Animation: []Keyframe{kf("open", "shoulder", "wave-left"), kf("open", "shoulder", "wave-right"), kf("open", "shoulder", "wave-left")}},
	{Name: "good_morning", Category: "greetings", Description: "Flat hand from chin, then arm rises like the sun", Phrase: "Good morning", Confidence: 0.8,
		Animation: []Keyframe{kf("flat", "chin", "forward"), kf("flat", "elbow", "rise")}},

	// courtesy
	{Name: "thank_you", Category: "courtesy", Description: "Flat hand moves forward from the chin", Phrase: "Thank you", Confidence: 0.9,
		Animation: []Keyframe{kf("flat", "chin", ""), kf("flat", "chest-front", "forward")}},
	{Name: "please", Category: "courtesy", Description: "Flat hand circles on the chest", Phrase: "Please", Confidence: 0.85,
		Animation: []Keyframe{kf("flat", "chest", "circle"), kf("flat", "chest", "circle")}},
	{Name: "sorry", Category: "courtesy", Description: "Closed fist circles on the chest", Phrase: "I'm sorry", Confidence: 0.85,
		Animation: []Keyframe{kf("fist", "chest", "circle"), kf("fist", "chest", "circle")}},
	{Name: "excuse_me", Category: "courtesy", Description: "Fingertips brush across the opposite palm", Phrase: "Excuse me", Confidence: 0.75,
		Animation: []Keyframe{kf("bent", "palm", "brush"), kf("bent", "palm", "brush")}},
	{Name: "welcome", Category: "courtesy", Description: "Open hand sweeps toward the body", Phrase: "You're welcome", Confidence: 0.8,
		Animation: []Keyframe{kf("open", "side", ""), kf("open", "waist", "sweep-in")}},

	// responses
	{Name: "yes", Category: "responses", Description: "Closed fist nods up and down", Phrase: "Yes", Confidence: 0.9,
		Animation: []Keyframe{kf("fist", "shoulder", "nod-down"), kf("fist", "shoulder", "nod-up")}},
	{Name: "no", Category: "responses", Description: "Index and middle finger snap onto the thumb", Phrase: "No", Confidence: 0.9,
		Animation: []Keyframe{kf("two-open", "shoulder", ""), kf("two-closed", "shoulder", "snap")}},
	{Name: "maybe", Category: "responses", Description: "Both flat palms alternate up and down", Phrase: "Maybe", Confidence: 0.75,
		Animation: []Keyframe{kf("flat", "waist", "alternate"), kf("flat", "waist", "alternate")}},
	{Name: "ok", Category: "responses", Description: "Thumb and index form a circle", Phrase: "Okay", Confidence: 0.8,
		Animation: []Keyframe{kf("o-ring", "shoulder", "")}},

	// needs
	{Name: "help", Category: "needs", Description: "Fist with thumb up rests on the open palm and both lift", Phrase: "I need help", Confidence: 0.9,
		Animation: []Keyframe{kf("thumb-up", "palm", ""), kf("thumb-up", "chest", "lift")}},
	{Name: "water", Category: "needs", Description: "W handshape taps the chin", Phrase: "Water", Confidence: 0.85,
		Animation: []Keyframe{kf("w", "chin", "tap"), kf("w", "chin", "tap")}},
	{Name: "food", Category: "needs", Description: "Flattened O handshape taps the lips", Phrase: "Food", Confidence: 0.85,
		Animation: []Keyframe{kf("flat-o", "mouth", "tap"), kf("flat-o", "mouth", "tap")}},
	{Name: "bathroom", Category: "needs", Description: "T handshape shakes side to side", Phrase: "Where is the bathroom?", Confidence: 0.8,
		Animation: []Keyframe{kf("t", "shoulder", "shake"), kf("t", "shoulder", "shake")}},
	{Name: "more", Category: "needs", Description: "Flattened O fingertips tap together", Phrase: "More", Confidence: 0.8,
		Animation: []Keyframe{kf("flat-o", "chest-front", "tap")}},
	{Name: "stop", Category: "needs", Description: "Edge of the flat hand chops onto the palm", Phrase: "Stop", Confidence: 0.85,
		Animation: []Keyframe{kf("flat", "head", ""), kf("flat", "palm", "chop")}},

	// emotions
	{Name: "happy", Category: "emotions", Description: "Flat hand brushes upward on the chest", Phrase: "I'm happy", Confidence: 0.85,
		Animation: []Keyframe{kf("flat", "chest", "brush-up"), kf("flat", "chest", "brush-up")}},
	{Name: "sad", Category: "emotions", Description: "Open hands slide down in front of the face", Phrase: "I'm sad", Confidence: 0.8,
		Animation: []Keyframe{kf("open", "face", ""), kf("open", "chin", "slide-down")}},
	{Name: "love", Category: "emotions", Description: "Thumb, index and pinky extended", Phrase: "I love you", Confidence: 0.9,
		Animation: []Keyframe{kf("ily", "shoulder", "")}},
	{Name: "angry", Category: "emotions", Description: "Clawed hand pulls away from the face", Phrase: "I'm angry", Confidence: 0.75,
		Animation: []Keyframe{kf("claw", "face", ""), kf("claw", "chin", "pull-out")}},
	{Name: "tired", Category: "emotions", Description: "Bent hands on the chest rotate downward", Phrase: "I'm tired", Confidence: 0.75,
		Animation: []Keyframe{kf("bent", "chest", ""), kf("bent", "chest", "droop")}},

	// relationships
	{Name: "family", Category: "relationships", Description: "F handshapes circle outward to meet", Phrase: "Family", Confidence: 0.8,
		Animation: []Keyframe{kf("f", "chest-front", "circle-out"), kf("f", "chest-front", "meet")}},
	{Name: "friend", Category: "relationships", Description: "Index fingers hook together twice", Phrase: "Friend", Confidence: 0.85,
		Animation: []Keyframe{kf("hook", "chest-front", "link"), kf("hook", "chest-front", "link-swap")}},
	{Name: "mother", Category: "relationships", Description: "Thumb of the open hand taps the chin", Phrase: "Mother", Confidence: 0.85,
		Animation: []Keyframe{kf("five", "chin", "tap")}},
	{Name: "father", Category: "relationships", Description: "Thumb of the open hand taps the forehead", Phrase: "Father", Confidence: 0.85,
		Animation: []Keyframe{kf("five", "forehead", "tap")}},

	// places
	{Name: "home", Category: "places", Description: "Flattened O touches the mouth then the cheek", Phrase: "Home", Confidence: 0.85,
		Animation: []Keyframe{kf("flat-o", "mouth", ""), kf("flat-o", "cheek", "")}},
	{Name: "school", Category: "places", Description: "Flat hand claps onto the opposite palm twice", Phrase: "School", Confidence: 0.8,
		Animation: []Keyframe{kf("flat", "palm", "clap"), kf("flat", "palm", "clap")}},
	{Name: "hospital", Category: "places", Description: "H handshape draws a cross on the upper arm", Phrase: "Hospital", Confidence: 0.75,
		Animation: []Keyframe{kf("h", "upper-arm", "down"), kf("h", "upper-arm", "across")}},
	{Name: "work", Category: "places", Description: "Fist taps the back of the other fist", Phrase: "Work", Confidence: 0.8,
		Animation: []Keyframe{kf("fist", "wrist", "tap"), kf("fist", "wrist", "tap")}},

	// time
	{Name: "today", Category: "time", Description: "Both Y handshapes drop, then point down", Phrase: "Today", Confidence: 0.8,
		Animation: []Keyframe{kf("y", "waist", "drop"), kf("index", "waist", "point-down")}},
	{Name: "tomorrow", Category: "time", Description: "Thumb on the cheek arcs forward", Phrase: "Tomorrow", Confidence: 0.8,
		Animation: []Keyframe{kf("a", "cheek", ""), kf("a", "cheek-front", "arc-forward")}},
	{Name: "now", Category: "time", Description: "Both bent hands drop sharply", Phrase: "Now", Confidence: 0.8,
		Animation: []Keyframe{kf("y", "chest-front", "drop")}},
	{Name: "later", Category: "time", Description: "L handshape pivots forward on the palm", Phrase: "Later", Confidence: 0.75,
		Animation: []Keyframe{kf("l", "palm", "pivot")}},

	// comprehension
	{Name: "understand", Category: "comprehension", Description: "Index finger flicks up beside the forehead", Phrase: "I understand", Confidence: 0.85,
		Animation: []Keyframe{kf("fist", "forehead-side", ""), kf("index", "forehead-side", "flick-up")}},
	{Name: "dont_understand", Category: "comprehension", Description: "Understand sign followed by a head shake", Phrase: "I don't understand", Confidence: 0.8,
		Animation: []Keyframe{kf("index", "forehead-side", "flick-up"), kf("index", "forehead-side", "shake")}},
	{Name: "repeat", Category: "comprehension", Description: "Bent hand flips onto the opposite palm", Phrase: "Please repeat that", Confidence: 0.75,
		Animation: []Keyframe{kf("bent", "palm", "flip")}},

	// numbers
	{Name: "zero", Category: "numbers", Description: "Fingers and thumb form an O", Phrase: "Zero", Confidence: 0.85, Animation: []Keyframe{kf("o", "shoulder", "")}},
	{Name: "one", Category: "numbers", Description: "Index finger raised", Phrase: "One", Confidence: 0.9, Animation: []Keyframe{kf("index", "shoulder", "")}},
	{Name: "two", Category: "numbers", Description: "Index and middle finger raised", Phrase: "Two", Confidence: 0.9, Animation: []Keyframe{kf("v", "shoulder", "")}},
	{Name: "three", Category: "numbers", Description: "Thumb, index and middle finger raised", Phrase: "Three", Confidence: 0.85, Animation: []Keyframe{kf("three", "shoulder", "")}},
	{Name: "four", Category: "numbers", Description: "Four fingers raised, thumb folded", Phrase: "Four", Confidence: 0.85, Animation: []Keyframe{kf("four", "shoulder", "")}},
	{Name: "five", Category: "numbers", Description: "All five fingers spread", Phrase: "Five", Confidence: 0.85, Animation: []Keyframe{kf("five", "shoulder", "")}},
	{Name: "six", Category: "numbers", Description: "Thumb touches the pinky", Phrase: "Six", Confidence: 0.8, Animation: []Keyframe{kf("six", "shoulder", "")}},
	{Name: "seven", Category: "numbers", Description: "Thumb touches the ring finger", Phrase: "Seven", Confidence: 0.8, Animation: []Keyframe{kf("seven", "shoulder", "")}},
	{Name: "eight", Category: "numbers", Description: "Thumb touches the middle finger", Phrase: "Eight", Confidence: 0.8, Animation: []Keyframe{kf("eight", "shoulder", "")}},
	{Name: "nine", Category: "numbers", Description: "Thumb touches the index finger", Phrase: "Nine", Confidence: 0.8, Animation: []Keyframe{kf("nine", "shoulder", "")}},
	{Name: "ten", Category: "numbers", Description: "Thumbs-up shaken twice", Phrase: "Ten", Confidence: 0.8, Animation: []Keyframe{kf("thumb-up", "shoulder", "shake")}},
}

var builtinKeywords = []Keyword{
	// greetings
	{Phrase: "good morning", Gesture: "good_morning"},
	{Phrase: "hello", Gesture: "hello"},
	{Phrase: "goodbye", Gesture: "goodbye"},
	{Phrase: "bye", Gesture: "goodbye"},
	{Phrase: "see you", Gesture: "goodbye"},
	// courtesy
	{Phrase: "thank you", Gesture: "thank_you"},
	{Phrase: "thanks", Gesture: "thank_you"},
	{Phrase: "please", Gesture: "please"},
	{Phrase: "sorry", Gesture: "sorry"},
	{Phrase: "excuse me", Gesture: "excuse_me"},
	{Phrase: "welcome", Gesture: "welcome"},
	// responses
	{Phrase: "yes", Gesture: "yes"},
	{Phrase: "yeah", Gesture: "yes"},
	{Phrase: "nope", Gesture: "no"},
	{Phrase: "no way", Gesture: "no"},
	{Phrase: "maybe", Gesture: "maybe"},
	{Phrase: "okay", Gesture: "ok"},
	// needs
	{Phrase: "help", Gesture: "help"},
	{Phrase: "water", Gesture: "water"},
	{Phrase: "thirsty", Gesture: "water"},
	{Phrase: "food", Gesture: "food"},
	{Phrase: "hungry", Gesture: "food"},
	{Phrase: "bathroom", Gesture: "bathroom"},
	{Phrase: "toilet", Gesture: "bathroom"},
	{Phrase: "more", Gesture: "more"},
	{Phrase: "stop", Gesture: "stop"},
	// emotions
	{Phrase: "happy", Gesture: "happy"},
	{Phrase: "sad", Gesture: "sad"},
	{Phrase: "love", Gesture: "love"},
	{Phrase: "angry", Gesture: "angry"},
	{Phrase: "tired", Gesture: "tired"},
	// relationships
	{Phrase: "family", Gesture: "family"},
	{Phrase: "friend", Gesture: "friend"},
	{Phrase: "mother", Gesture: "mother"},
	{Phrase: "mom", Gesture: "mother"},
	{Phrase: "father", Gesture: "father"},
	{Phrase: "dad", Gesture: "father"},
	// places
	{Phrase: "home", Gesture: "home"},
	{Phrase: "school", Gesture: "school"},
	{Phrase: "hospital", Gesture: "hospital"},
	{Phrase: "work", Gesture: "work"},
	// time
	{Phrase: "today", Gesture: "today"},
	{Phrase: "tomorrow", Gesture: "tomorrow"},
	{Phrase: "now", Gesture: "now"},
	{Phrase: "later", Gesture: "later"},
	// comprehension
	{Phrase: "don't understand", Gesture: "dont_understand"},
	{Phrase: "do not understand", Gesture: "dont_understand"},
	{Phrase: "understand", Gesture: "understand"},
	{Phrase: "repeat", Gesture: "repeat"},
}

// Builtin returns the default vocabulary document, including the fingerspelling alphabet.
func Builtin() Document {
	gestures := append([]Gesture(nil), builtinGestures...)
	for r := 'a'; r <= 'z'; r++ {
		gestures = append(gestures, Gesture{
			Name:        LetterGesture(r),
			Category:    "alphabet",
			Description: "Fingerspelled letter " + string(r-'a'+'A'),
			Phrase:      string(r - 'a' + 'A'),
			Confidence:  0.7,
			Animation:   []Keyframe{kf("letter-"+string(r), "shoulder", "")},
		})
	}
	return Document{
		Gestures: gestures,
		Keywords: append([]Keyword(nil), builtinKeywords...),
	}
}

// Default builds the vocabulary from Builtin.
func Default() *Vocabulary {
	v, err := New(Builtin())
	if err != nil {
		panic("builtin vocabulary invalid: " + err.Error())
	}
	return v
}
