package assistant

// Step names a stage of answering a message.
type Step string

const (
	StepReading    Step = "reading"
	StepParsing    Step = "parsing"
	StepAnalyzing  Step = "analyzing"
	StepGenerating Step = "generating"
	StepComplete   Step = "complete"
	StepError      Step = "error"
)

// Progress is one tick of a long operation.
type Progress struct {
	Step    Step
	Percent int
	Message string
	File    string
}

// report sends without blocking. Ticks are dropped when the consumer is not keeping up.
func (s *Service) report(step Step, percent int, message string, file string) {
	if s.progress == nil {
		return
	}
	select {
	case s.progress <- Progress{Step: step, Percent: percent, Message: message, File: file}:
	default:
	}
}
