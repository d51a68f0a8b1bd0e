package safety

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/helixask/helixaskd/pkg/canon"
	"github.com/helixask/helixaskd/pkg/models"
)

// certificatePrefix matches spec §4.5: "certificateId = 'robotics-safety:' +
// first-12-hex(hash)".
const certificatePrefix = "robotics-safety:"

// BuildCertificate computes the deterministic certificateHash/certificateId
// pair for a mode and its evaluated checks, spec §4.5: "certificateHash =
// SHA-256(canonical-JSON({mode, checks[]}))".
func BuildCertificate(mode string, checks []roboticsCheck, pass bool, integrityOk bool) models.Certificate {
	payload := map[string]any{
		"mode":   mode,
		"checks": checksToCanonicalValue(checks),
	}
	sum := sha256.Sum256([]byte(canon.JSON(payload)))
	hash := hex.EncodeToString(sum[:])

	status := models.CertificateGreen
	if !pass {
		status = models.CertificateRed
	}

	return models.Certificate{
		Status:          status,
		CertificateHash: hash,
		CertificateID:   certificatePrefix + hash[:12],
		IntegrityOk:     integrityOk,
	}
}
