package seed

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Generation constants.
const (
	defaultEmailDomain = "seed.hackreg.test"
	otherAnswerPercent = 10
	maxCheckboxAnswers = 3
)
