package ais

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/firmador-ais/internal/domain"
	pkgais "github.com/jhoicas/firmador-ais/pkg/ais"
)

// maxResponseBytes límite de lectura del cuerpo; un lote con CRLs puede ocupar varios MB.
const maxResponseBytes = 32 << 20

// TransportConfig credenciales y límites del canal mTLS.
type TransportConfig struct {
	CertFile     string
	KeyFile      string
	CertPassword string // solo para .p12
	CAFile       string
	Timeout      time.Duration // total por petición
}

// Client envía peticiones SOAP por HTTPS con autenticación mutua.
// No reintenta: cada llamada es exactamente un POST.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient carga las credenciales y construye el cliente. Cualquier fallo
// de carga es un error de configuración.
func NewClient(cfg TransportConfig, log zerolog.Logger) (*Client, error) {
	cert, err := LoadClientCertificate(cfg.CertFile, cfg.KeyFile, cfg.CertPassword)
	if err != nil {
		return nil, domain.ConfigurationError("certificado cliente: %v", err)
	}
	pool, err := LoadTrustPool(cfg.CAFile)
	if err != nil {
		return nil, domain.ConfigurationError("certificado del servidor: %v", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pkgais.DefaultTimeoutMillis * time.Millisecond
	}

	tlsConfig := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig:     tlsConfig,
				TLSHandshakeTimeout: timeout,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}, nil
}

// Send hace un POST del sobre SOAP y devuelve el cuerpo completo de la respuesta.
// Un estado HTTP distinto de 2xx con cuerpo se devuelve igualmente (los
// soap:Fault viajan con 500); sin cuerpo es un error de transporte.
func (c *Client) Send(ctx context.Context, body []byte, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.TransportError(fmt.Errorf("soap: crear request: %w", err))
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("Accept", "application/xml, text/xml")
	req.ContentLength = int64(len(body))

	c.log.Trace().Str("endpoint", endpoint).Bytes("request", body).Msg("soap: petición")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.TransportError(fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err()))
		}
		return nil, domain.TransportError(fmt.Errorf("soap: llamada HTTP fallida: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domain.TransportError(fmt.Errorf("soap: leer respuesta: %w", err))
	}

	c.log.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Dur("elapsed", time.Since(start)).
		Msg("soap: respuesta recibida")
	c.log.Trace().Bytes("response", raw).Msg("soap: respuesta")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil, domain.TransportError(fmt.Errorf("soap: HTTP %d sin cuerpo", resp.StatusCode))
		}
		c.log.Warn().Int("status", resp.StatusCode).Msg("soap: respuesta HTTP no exitosa, se interpreta el cuerpo")
	}
	return raw, nil
}
