package whatsappsvc

import (
	"context"
	"log"
	"sync"

	"github.com/trezcool/topphysics/core"
)

// ConsoleService is a Messenger that only prints messages and remembers them; used in debug and tests.
type ConsoleService struct {
	std           *log.Logger
	disableOutput bool

	mu   sync.Mutex
	sent []core.Message
}

var _ core.Messenger = (*ConsoleService)(nil)

func NewConsoleService(std *log.Logger, disableOutput ...bool) *ConsoleService {
	svc := &ConsoleService{std: std}
	if len(disableOutput) > 0 {
		svc.disableOutput = disableOutput[0]
	}
	return svc
}

func (svc *ConsoleService) Send(ctx context.Context, msg core.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	svc.mu.Lock()
	svc.sent = append(svc.sent, msg)
	svc.mu.Unlock()

	if !svc.disableOutput {
		svc.std.Printf("whatsapp to %s:\n%s", msg.To, msg.Body)
	}
	return nil
}

// Sent returns a copy of every message sent so far.
func (svc *ConsoleService) Sent() []core.Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	sent := make([]core.Message, len(svc.sent))
	copy(sent, svc.sent)
	return sent
}

// Reset forgets the sent messages.
func (svc *ConsoleService) Reset() {
	svc.mu.Lock()
	svc.sent = nil
	svc.mu.Unlock()
}
