package submit

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// generateTestCert creates a self-signed cert and key pair in the given directory.
func generateTestCert(t *testing.T, dir string) (certPath, keyPath string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating cert: %v", err)
	}
	certPath = writePEM(t, dir, "cert.pem", "CERTIFICATE", certDER)

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshaling key: %v", err)
	}
	keyPath = writePEM(t, dir, "key.pem", "EC PRIVATE KEY", keyDER)

	return certPath, keyPath
}

func writePEM(t *testing.T, dir, name, typ string, der []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestTLSConfigBuild_Empty(t *testing.T) {
	var nilCfg *TLSConfig
	if cfg, err := nilCfg.Build(); err != nil || cfg != nil {
		t.Errorf("nil config = %v, %v", cfg, err)
	}
	if cfg, err := (&TLSConfig{}).Build(); err != nil || cfg != nil {
		t.Errorf("zero config = %v, %v", cfg, err)
	}
}

func TestTLSConfigBuild_InsecureSkipVerify(t *testing.T) {
	cfg, err := (&TLSConfig{InsecureSkipVerify: true}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("expected InsecureSkipVerify to be true")
	}
}

func TestTLSConfigBuild_ClientCert(t *testing.T) {
	certPath, keyPath := generateTestCert(t, t.TempDir())

	cfg, err := (&TLSConfig{CertFile: certPath, KeyFile: keyPath}).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("expected 1 certificate, got %d", len(cfg.Certificates))
	}
}

func TestTLSConfigBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	badCA := filepath.Join(dir, "bad-ca.pem")
	os.WriteFile(badCA, []byte("not a valid PEM"), 0o644)

	tests := []TLSConfig{
		{CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
		{CAFile: "/nonexistent/ca.pem"},
		{CAFile: badCA},
	}
	for _, tc := range tests {
		if _, err := tc.Build(); err == nil {
			t.Errorf("expected error for %+v", tc)
		}
	}
}

func TestSubmitOverTLSWithCustomCA(t *testing.T) {
	b := &backend{}
	srv := httptest.NewTLSServer(b.handler(t))
	defer srv.Close()

	caPath := writePEM(t, t.TempDir(), "ca.pem", "CERTIFICATE", srv.Certificate().Raw)
	tlsCfg, err := (&TLSConfig{CAFile: caPath}).Build()
	if err != nil {
		t.Fatal(err)
	}

	c := New(srv.URL)
	c.SetTLSConfig(tlsCfg)
	res, err := c.Submit(context.Background(), "tls", sampleEntries)
	if err != nil {
		t.Fatalf("Submit over TLS failed: %v", err)
	}
	if res.SessionID != "sess-123" {
		t.Errorf("session = %s", res.SessionID)
	}

	// Without the CA the handshake must fail.
	if _, err := New(srv.URL).Submit(context.Background(), "tls", sampleEntries); err == nil {
		t.Error("expected certificate error without custom CA")
	}
}
