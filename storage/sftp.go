package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strings"
	"time"

	"manimserve/config"
	"manimserve/logger"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SFTPBackend copies files into a remote directory that a web server
// exposes under PublicBaseURL. A connection is opened per call.
type SFTPBackend struct {
	cfg     config.SFTPConfig
	baseURL string
}

func NewSFTPBackend(cfg config.SFTPConfig, publicBaseURL string) *SFTPBackend {
	if cfg.Port == "" {
		cfg.Port = "22"
	}
	return &SFTPBackend{cfg: cfg, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (b *SFTPBackend) Name() string { return config.BackendSFTP }

func (b *SFTPBackend) clientConfig() (*ssh.ClientConfig, error) {
	var auths []ssh.AuthMethod
	if b.cfg.PrivateKey != "" {
		// try to decode as base64, fall back to raw
		keyBytes, err := base64.StdEncoding.DecodeString(b.cfg.PrivateKey)
		if err != nil {
			keyBytes = []byte(b.cfg.PrivateKey)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	} else if b.cfg.Password != "" {
		auths = append(auths, ssh.Password(b.cfg.Password))
	} else {
		return nil, fmt.Errorf("no auth method provided; set SFTP_PASSWORD or SFTP_PRIVATE_KEY")
	}

	return &ssh.ClientConfig{
		User:            b.cfg.User,
		Auth:            auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}, nil
}

// connect dials the server respecting ctx. The returned func closes both
// the sftp and ssh clients.
func (b *SFTPBackend) connect(ctx context.Context) (*sftp.Client, func(), error) {
	sshConfig, err := b.clientConfig()
	if err != nil {
		return nil, nil, err
	}
	addr := net.JoinHostPort(b.cfg.Host, b.cfg.Port)

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial tcp %s: %w", addr, err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(clientConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, fmt.Errorf("create sftp client: %w", err)
	}
	return sftpClient, func() {
		sftpClient.Close()
		sshClient.Close()
	}, nil
}

func (b *SFTPBackend) Put(ctx context.Context, localPath, key, contentType string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	client, closeFn, err := b.connect(ctx)
	if err != nil {
		return "", err
	}
	defer closeFn()

	remotePath := path.Join(b.cfg.RemoteDir, key)
	dir := path.Dir(remotePath)
	if err := mkdirAllSFTP(client, dir); err != nil {
		return "", fmt.Errorf("ensure remote dir %s: %w", dir, err)
	}

	f, err := client.Create(remotePath)
	if err != nil {
		return "", fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, src); err != nil {
		return "", fmt.Errorf("copy to remote file %s: %w", remotePath, err)
	}

	logger.Infof("Successfully uploaded '%s' to %s", remotePath, b.cfg.Host)
	return b.baseURL + "/" + key, nil
}

func (b *SFTPBackend) Check(ctx context.Context) error {
	client, closeFn, err := b.connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if _, err := client.Stat(b.cfg.RemoteDir); err != nil {
		return fmt.Errorf("stat %s: %w", b.cfg.RemoteDir, err)
	}
	return nil
}

func (b *SFTPBackend) Close() error { return nil }

// mkdirAllSFTP mimics os.MkdirAll for an SFTP server by creating each segment of the path.
func mkdirAllSFTP(client *sftp.Client, dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	parts := strings.Split(dir, "/")
	cur := ""
	if strings.HasPrefix(dir, "/") {
		cur = "/"
	}

	for _, p := range parts {
		if p == "" {
			continue
		}
		cur = path.Join(cur, p)
		if _, err := client.Stat(cur); err != nil {
			if os.IsNotExist(err) {
				if err := client.Mkdir(cur); err != nil {
					return fmt.Errorf("mkdir %s: %w", cur, err)
				}
			} else {
				return fmt.Errorf("stat %s: %w", cur, err)
			}
		}
	}
	return nil
}
