package transcriber

// Model selects the speech-to-text protocol. The set of variants is closed:
// only the types in this file implement it, and the dispatcher switches over
// all of them.
type Model interface {
	// Type is the name used in settings, audit file names and logs.
	Type() string
	isModel()
}

// LocalModel runs whisper.cpp on this machine.
type LocalModel struct {
	ModelPath    string
	Language     string // empty = auto
	Threads      int
	VAD          bool
	VADModelPath string
}

// WhisperModel uploads the whole file to the audio transcription endpoint.
type WhisperModel struct {
	Model          string
	Language       string
	Prompt         string
	ResponseFormat string // text, json, verbose_json, srt, vtt
	Temperature    float32
}

// ChatAudioModel embeds the audio in a chat completion request.
type ChatAudioModel struct {
	Model       string
	Language    string
	Prompt      string
	Temperature float32
}

func (LocalModel) Type() string     { return "local" }
func (WhisperModel) Type() string   { return "whisper-1" }
func (ChatAudioModel) Type() string { return "4o-transcribe" }

func (LocalModel) isModel()     {}
func (WhisperModel) isModel()   {}
func (ChatAudioModel) isModel() {}

// Endpoint describes where a model's requests go, for status output.
func Endpoint(m Model) string {
	switch m.(type) {
	case LocalModel:
		return "local whisper-cli"
	case WhisperModel:
		return "/v1/audio/transcriptions"
	case ChatAudioModel:
		return "/v1/chat/completions"
	default:
		return "unknown"
	}
}
