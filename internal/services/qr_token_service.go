package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image/png"
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/viper"
)

const tokenVersion = "v1"

// TokenClaims is the identity a QR token encodes. The token is a reference,
// not a capability: balance and expiry are never embedded and must always be
// resolved against the stored pass at point of use.
type TokenClaims struct {
	PassID   int
	UserID   int
	MintedAt time.Time
}

// QRTokenService mints and decodes the opaque identity token printed on a
// pass's QR code. A pass gets exactly one token for its lifetime, generated
// at creation; the HMAC makes tampering detectable before any storage hit.
type QRTokenService struct {
	secret []byte
}

func NewQRTokenService() *QRTokenService {
	return &QRTokenService{
		secret: []byte(viper.GetString("qr.secret_key")),
	}
}

// Mint produces the token for a freshly created pass. Format:
// base64url(version:passID:userID:mintedUnix:nonce) "." hex(HMAC-SHA256).
func (s *QRTokenService) Mint(passID, userID int) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate token nonce: %w", err)
	}

	payload := fmt.Sprintf("%s:%d:%d:%d:%s",
		tokenVersion, passID, userID, time.Now().Unix(),
		base64.RawURLEncoding.EncodeToString(nonce))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))

	return body + "." + s.sign(body), nil
}

// Decode verifies the MAC and parses the claims. Any structural or MAC
// failure is an invalid-token error; the caller still has to resolve the
// claims against the stored pass.
func (s *QRTokenService) Decode(token string) (*TokenClaims, error) {
	body, mac, found := strings.Cut(token, ".")
	if !found || body == "" {
		return nil, NewInvalidTokenError("malformed token")
	}

	if !hmac.Equal([]byte(mac), []byte(s.sign(body))) {
		return nil, NewInvalidTokenError("token signature mismatch")
	}

	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, NewInvalidTokenError("malformed token")
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 5 || parts[0] != tokenVersion {
		return nil, NewInvalidTokenError("unsupported token format")
	}

	passID, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, NewInvalidTokenError("malformed token")
	}
	userID, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, NewInvalidTokenError("malformed token")
	}
	minted, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, NewInvalidTokenError("malformed token")
	}

	return &TokenClaims{
		PassID:   passID,
		UserID:   userID,
		MintedAt: time.Unix(minted, 0),
	}, nil
}

// Image renders the token as a PNG QR code.
func (s *QRTokenService) Image(token string, size int) ([]byte, error) {
	qr, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(size)); err != nil {
		return nil, fmt.Errorf("failed to encode QR image: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *QRTokenService) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}
