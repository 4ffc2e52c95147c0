package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"premises/internal/app/dto"
)

var ErrMessageRequired = errors.New("chat: message is required")

// historyLimit clamps how many prior turns are replayed to the model.
const historyLimit = 20

// SystemPrompt pins the assistant to the rental domain. Responses are
// expected in Vietnamese regardless of the user's phrasing.
const SystemPrompt = "Bạn là trợ lý ảo của một nền tảng cho thuê mặt bằng kinh doanh tại Việt Nam. " +
	"Hãy trả lời ngắn gọn, thân thiện và bằng tiếng Việt. " +
	"Bạn tư vấn về: tìm mặt bằng phù hợp (vị trí, diện tích, giá thuê), " +
	"kinh nghiệm đàm phán hợp đồng thuê, và gợi ý loại hình kinh doanh theo khu vực. " +
	"Nếu câu hỏi nằm ngoài lĩnh vực bất động sản cho thuê, hãy lịch sự từ chối."

// Turn is one prior exchange passed to the generator.
type Turn struct {
	Role string
	Text string
}

// Generator is the model backend. Stream emits deltas as they arrive.
type Generator interface {
	Generate(ctx context.Context, system string, turns []Turn, message string) (string, error)
	Stream(ctx context.Context, system string, turns []Turn, message string, emit func(delta string) error) error
}

type Service struct {
	Generator Generator
	Logger    *slog.Logger
}

func (s *Service) prepare(req dto.ChatRequest) (string, []Turn, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", nil, ErrMessageRequired
	}
	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	turns := make([]Turn, 0, len(history))
	for _, turn := range history {
		if strings.TrimSpace(turn.Text) == "" {
			continue
		}
		turns = append(turns, Turn{Role: turn.Role, Text: turn.Text})
	}
	return message, turns, nil
}

// Reply produces a one-shot answer.
func (s *Service) Reply(ctx context.Context, req dto.ChatRequest) (dto.ChatReply, error) {
	message, turns, err := s.prepare(req)
	if err != nil {
		return dto.ChatReply{}, err
	}
	answer, err := s.Generator.Generate(ctx, SystemPrompt, turns, message)
	if err != nil {
		return dto.ChatReply{}, err
	}
	return dto.ChatReply{Reply: answer}, nil
}

// StreamReply emits answer deltas through emit. When streaming fails before
// any delta was delivered it falls back to the one-shot path, so clients
// always get an answer if the model is reachable at all.
func (s *Service) StreamReply(ctx context.Context, req dto.ChatRequest, emit func(delta string) error) error {
	message, turns, err := s.prepare(req)
	if err != nil {
		return err
	}
	delivered := false
	streamErr := s.Generator.Stream(ctx, SystemPrompt, turns, message, func(delta string) error {
		delivered = true
		return emit(delta)
	})
	if streamErr == nil {
		return nil
	}
	if delivered {
		return streamErr
	}
	if s.Logger != nil {
		s.Logger.Warn("chat stream failed, falling back to one-shot", "error", streamErr)
	}
	answer, err := s.Generator.Generate(ctx, SystemPrompt, turns, message)
	if err != nil {
		return err
	}
	return emit(answer)
}
