package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// Code alphabets exclude characters easily confused with 0/1 (o, O, i,
// I, l, 0, 1). Codes are typed by humans from printed or pasted links.
const (
	codeLeadAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	codeAlphabet     = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
)

// InviteCodeSegmentLength is the length of the random segment after the
// leading character.
const InviteCodeSegmentLength = 11

// LoginCodeLength is the full length of a generated login code.
const LoginCodeLength = 16

// HashLoginCode hashes a plaintext login code with bcrypt.
func HashLoginCode(code string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	return string(bytes), err
}

// CheckLoginCode compares a plaintext login code against a bcrypt hash.
func CheckLoginCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}

// LookupHash derives the deterministic index key for a login code: an
// HMAC-SHA256 over the plaintext keyed by a server-side pepper, hex
// encoded. It exists only to narrow the candidate row before bcrypt
// verification and must never be used as proof of possession.
func LookupHash(pepper, code string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// Fingerprint derives the keyed audit fingerprint of a login code. The
// caller stores the key id alongside so the key can rotate without
// losing linkage of historical rows.
func Fingerprint(key, code string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateInviteCode generates a human-typeable invite code: one
// non-ambiguous leading character followed by a fixed-length random
// segment.
func GenerateInviteCode() (string, error) {
	lead, err := randomFrom(codeLeadAlphabet, 1)
	if err != nil {
		return "", err
	}
	segment, err := randomFrom(codeAlphabet, InviteCodeSegmentLength)
	if err != nil {
		return "", err
	}
	return lead + segment, nil
}

// GenerateLoginCode generates a fixed-length reusable login code.
func GenerateLoginCode() (string, error) {
	return randomFrom(codeAlphabet, LoginCodeLength)
}

func randomFrom(alphabet string, n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
