package manifest_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mwfgate/internal/common"
	"example.com/mwfgate/internal/manifest"
)

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	files := []struct{ name, body string }{
		{"rec.mwf", "binary"},
		{"rec.csv", "Time: (s)\n"},
		{"audit.jsonl", "{}\n"},
		{"rec.PDF", "%PDF"},
		{"notes.txt", "x"},
	}
	var paths []string
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		require.NoError(t, os.WriteFile(p, []byte(f.body), 0o644))
		paths = append(paths, p)
	}

	m, err := manifest.Build(paths)
	require.NoError(t, err)
	_, err = uuid.Parse(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "sha256", m.ShaAlgo)
	require.Len(t, m.Items, 5)

	var types []string
	for _, item := range m.Items {
		types = append(types, item.Type)
	}
	assert.Equal(t, []string{"mwf", "csv", "jsonl", "pdf", "other"}, types)
	assert.Equal(t, common.Sha256OfBytes([]byte("binary")), m.Items[0].Sha256)
	assert.Equal(t, int64(6), m.Items[0].Size)

	out := filepath.Join(dir, "manifest.json")
	require.NoError(t, manifest.Save(m, out))
	loaded, err := manifest.Load(out)
	require.NoError(t, err)
	assert.Equal(t, m.ID, loaded.ID)
	assert.Equal(t, m.Items, loaded.Items)
	assert.Nil(t, loaded.Signature)

	_, err = manifest.Build([]string{filepath.Join(dir, "missing.mwf")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSignaturePath(t *testing.T) {
	assert.Equal(t, "out/manifest.jws", manifest.SignaturePath("out/manifest.json"))
	assert.Equal(t, "manifest.jws", manifest.SignaturePath("manifest"))
}

func signer(t *testing.T) (keyPEM, certPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "mwfgate test signer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return keyPEM, certPEM
}

func TestSignAndVerify(t *testing.T) {
	keyPEM, certPEM := signer(t)
	payload := []byte(`{"items":[]}`)

	sig, err := manifest.SignDetachedJWS(payload, keyPEM)
	require.NoError(t, err)
	assert.Empty(t, sig.Payload)
	require.NoError(t, manifest.VerifyDetachedJWS(payload, sig, certPEM))

	err = manifest.VerifyDetachedJWS([]byte(`{"items":[1]}`), sig, certPEM)
	assert.ErrorIs(t, err, manifest.ErrBadSignature)

	cert, err := manifest.ParseCertificate(certPEM)
	require.NoError(t, err)
	assert.Contains(t, cert.Subject.String(), "mwfgate test signer")

	_, err = manifest.SignDetachedJWS(payload, []byte("not pem"))
	assert.Error(t, err)
	_, err = manifest.ParseCertificate([]byte("not pem"))
	assert.Error(t, err)
}
