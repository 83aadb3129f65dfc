package signer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// PromptSigner asks for approval on a terminal before delegating to another signer.
type PromptSigner struct {
	inner Signer
	out   io.Writer

	mu sync.Mutex
	in *bufio.Reader
}

// NewPromptSigner creates a PromptSigner reading answers from `in` and writing prompts to `out`.
func NewPromptSigner(inner Signer, in io.Reader, out io.Writer) *PromptSigner {
	return &PromptSigner{
		inner: inner,
		out:   out,
		in:    bufio.NewReader(in),
	}
}

func (s *PromptSigner) Address() string {
	return s.inner.Address()
}

func (s *PromptSigner) PublicKey() *sm2.PublicKey {
	return s.inner.PublicKey()
}

func (s *PromptSigner) Sign(ctx context.Context, purpose string, payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(s.out, "账户 %v 收到签名请求: %v（%v 字节）。是否批准？[y/N] ", s.inner.Address(), purpose, len(payload))
	answer, err := s.in.ReadString('\n')
	if err != nil && answer == "" {
		return nil, errors.Wrap(errorcode.ErrorUserRejected, "无法读取确认输入")
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return s.inner.Sign(ctx, purpose, payload)
	default:
		return nil, errors.Wrap(errorcode.ErrorUserRejected, "用户拒绝了签名请求")
	}
}
