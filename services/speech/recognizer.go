package speech

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"medichat/utils"

	speech "cloud.google.com/go/speech/apiv1"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	speechpb "google.golang.org/genproto/googleapis/cloud/speech/v1"
)

// Transcript is one recognition result. Interim results arrive with Final
// false and are superseded by later transcripts.
type Transcript struct {
	Text  string
	Final bool
}

// Recognizer wraps the Google Cloud Speech client for voice input.
type Recognizer struct {
	client *speech.Client
	logger *zap.Logger
}

func NewRecognizer(ctx context.Context, credentialsFile string) (*Recognizer, error) {
	client, err := speech.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &Recognizer{client: client, logger: utils.GetLogger()}, nil
}

func (r *Recognizer) Close() error {
	return r.client.Close()
}

// Transcribe performs a one-shot recognition over a complete WAV payload.
func (r *Recognizer) Transcribe(ctx context.Context, data []byte, language string) (string, error) {
	sampleRate, err := ValidateWAV(data)
	if err != nil {
		return "", fmt.Errorf("invalid audio: %w", err)
	}

	resp, err := r.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(sampleRate),
			LanguageCode:      language,
			AudioChannelCount: 1,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		for _, alt := range result.Alternatives {
			transcript.WriteString(alt.Transcript + " ")
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}

// Session is a restartable streaming recognition. A session goes through
// Start, any number of Write calls, then Stop; the transcript channel closes
// once the server has flushed its final results or the stream errors. A
// stopped session is done for good, callers start a new one to listen again.
type Session struct {
	recognizer *Recognizer
	sampleRate int32
	language   string

	stream speechpb.Speech_StreamingRecognizeClient
	out    chan Transcript

	stopOnce sync.Once
	started  bool
}

func (r *Recognizer) NewSession(sampleRate uint32, language string) *Session {
	return &Session{
		recognizer: r,
		sampleRate: int32(sampleRate),
		language:   language,
		out:        make(chan Transcript, 8),
	}
}

// Start opens the streaming recognizer and begins delivering transcripts.
func (s *Session) Start(ctx context.Context) (<-chan Transcript, error) {
	if s.started {
		return nil, fmt.Errorf("speech session already started")
	}
	stream, err := s.recognizer.client.StreamingRecognize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open recognition stream: %w", err)
	}
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:          speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz:   s.sampleRate,
					LanguageCode:      s.language,
					AudioChannelCount: 1,
				},
				InterimResults: true,
			},
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to send recognition config: %w", err)
	}

	s.stream = stream
	s.started = true
	go s.receive()
	return s.out, nil
}

// Write feeds a chunk of raw audio into the stream.
func (s *Session) Write(chunk []byte) error {
	if !s.started {
		return fmt.Errorf("speech session not started")
	}
	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: chunk,
		},
	})
}

// Stop signals end of audio. Remaining final results still arrive on the
// transcript channel before it closes.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		if s.stream != nil {
			if err := s.stream.CloseSend(); err != nil {
				s.recognizer.logger.Warn("failed to close recognition stream", zap.Error(err))
			}
		}
	})
}

func (s *Session) receive() {
	defer close(s.out)
	defer s.Stop()
	for {
		resp, err := s.stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.recognizer.logger.Warn("recognition stream error", zap.Error(err))
			return
		}
		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			s.out <- Transcript{
				Text:  result.Alternatives[0].Transcript,
				Final: result.IsFinal,
			}
		}
	}
}
