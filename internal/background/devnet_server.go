package background

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/controller"
	"gitee.com/czyczk/attested-reveal/internal/devnet"
)

// DevnetServer serves the gateway API of a devnet over HTTP in the background.
type DevnetServer struct {
	Network *devnet.Network
	Addr    string // 监听地址，如 ":8081"；端口为 0 时由系统分配

	status     *backgroundServerStatus
	httpServer *http.Server
	listener   net.Listener
	wg         sync.WaitGroup
	chanError  chan error
}

func NewDevnetServer(network *devnet.Network, addr string) *DevnetServer {
	return &DevnetServer{
		Network:   network,
		Addr:      addr,
		status:    newBackgroundServerStatus(),
		chanError: make(chan error, 1),
	}
}

// Start starts listening and serving. It returns once the listener is bound.
func (s *DevnetServer) Start() error {
	log.Infoln("正在启动开发网络服务器...")

	if s.status.getIsStarting() {
		return fmt.Errorf("开发网络服务器正在启动")
	} else if s.status.getIsStarted() {
		return fmt.Errorf("开发网络服务器已启动")
	}

	s.status.setIsStarting(true)
	defer s.status.setIsStarting(false)

	router, err := controller.NewDevnetRouter(s.Network)
	if err != nil {
		return errors.Wrap(err, "无法注册开发网络接口")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrap(err, "无法启动 HTTP 服务器")
	}

	s.listener = listener
	s.httpServer = &http.Server{Handler: router}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.chanError <- errors.Wrap(err, "HTTP 服务器异常退出")
		}
	}()

	s.status.setIsStarted(true)
	log.Infof("开发网络服务器已启动，监听 %v", listener.Addr())

	return nil
}

// ListenAddr returns the bound address, or nil if the server is not started.
func (s *DevnetServer) ListenAddr() net.Addr {
	if !s.status.getIsStarted() {
		return nil
	}

	return s.listener.Addr()
}

// Errors delivers the error that made the server stop serving on its own.
func (s *DevnetServer) Errors() <-chan error {
	return s.chanError
}

// Stop shuts the HTTP server down gracefully and waits for the serving goroutine.
func (s *DevnetServer) Stop(ctx context.Context) error {
	if s.status.getIsStopping() {
		return fmt.Errorf("开发网络服务器正在停止")
	} else if !s.status.getIsStarted() {
		return fmt.Errorf("开发网络服务器已停止")
	}

	s.status.setIsStopping(true)
	defer s.status.setIsStopping(false)

	log.Infoln("正在停止开发网络服务器...")
	err := s.httpServer.Shutdown(ctx)
	s.wg.Wait()
	s.status.setIsStarted(false)
	if err != nil {
		return errors.Wrap(err, "无法正常停止 HTTP 服务器")
	}

	log.Infoln("开发网络服务器已停止。")
	return nil
}
