// Package serve runs the board program for every SSH session in its own
// pseudo-terminal.
package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog"
)

const (
	ServerIdleTimeout = 5 * time.Minute
	DefaultAddr       = ":2222"
)

// Server hands each interactive session to a fresh process.
type Server struct {
	Addr        string
	HostKeyFile string // generated on start when empty
	IdleTimeout time.Duration
	// Command builds the process for a session. It is started under
	// CommandContext semantics: the process is killed when the session ends.
	Command func(ctx context.Context, s ssh.Session) *exec.Cmd
	Log     zerolog.Logger

	srv *ssh.Server
}

func (s *Server) server() (*ssh.Server, error) {
	if s.srv != nil {
		return s.srv, nil
	}
	if s.Command == nil {
		return nil, errors.New("serve: no command")
	}
	addr, idle := s.Addr, s.IdleTimeout
	if addr == "" {
		addr = DefaultAddr
	}
	if idle == 0 {
		idle = ServerIdleTimeout
	}
	srv := &ssh.Server{
		Addr:        addr,
		IdleTimeout: idle,
		Handler:     s.handle,
	}
	if s.HostKeyFile != "" {
		if err := srv.SetOption(ssh.HostKeyFile(s.HostKeyFile)); err != nil {
			return nil, fmt.Errorf("host key: %w", err)
		}
	}
	s.srv = srv
	return srv, nil
}

// ListenAndServe listens on Addr and blocks until Close.
func (s *Server) ListenAndServe() error {
	srv, err := s.server()
	if err != nil {
		return err
	}
	s.Log.Info().Str("addr", srv.Addr).Msg("serving over ssh")
	return srv.ListenAndServe()
}

// Serve accepts sessions on l and blocks until Close.
func (s *Server) Serve(l net.Listener) error {
	srv, err := s.server()
	if err != nil {
		return err
	}
	s.Log.Info().Str("addr", l.Addr().String()).Msg("serving over ssh")
	return srv.Serve(l)
}

// Close stops listening and drops open sessions.
func (s *Server) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func winsize(w ssh.Window) *pty.Winsize {
	return &pty.Winsize{Rows: uint16(w.Height), Cols: uint16(w.Width)}
}

func (s *Server) handle(sess ssh.Session) {
	log := s.Log.With().Str("user", sess.User()).Str("remote", sess.RemoteAddr().String()).Logger()
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "non-interactive terminals are not supported\n")
		sess.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	cmd := s.Command(cmdCtx, sess)
	if cmd.Env == nil {
		cmd.Env = sess.Environ()
	}
	cmd.Env = append(cmd.Env, fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, winsize(ptyReq.Window))
	if err != nil {
		log.Error().Err(err).Msg("start session")
		io.WriteString(sess, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sess.Exit(1)
		return
	}
	defer f.Close()
	log.Info().Int("pid", cmd.Process.Pid).Msg("session started")

	go func() {
		for win := range winCh {
			if err := pty.Setsize(f, winsize(win)); err != nil {
				log.Warn().Err(err).Msg("resize")
			}
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	cancelCmd()
	code := 0
	if err := cmd.Wait(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			code = exit.ExitCode()
		}
		log.Debug().Err(err).Msg("session process ended")
	}
	log.Info().Int("code", code).Msg("session closed")
	sess.Exit(code)
}
