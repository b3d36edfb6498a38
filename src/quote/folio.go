package quote

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateFolio produces a new externally visible plan identifier:
// FOLIO-<unix millis>-<3 random digits>. The millisecond timestamp keeps
// folios unique across sessions; the random suffix guards against two quotes
// generated in the same millisecond.
func GenerateFolio() string {
	return fmt.Sprintf("FOLIO-%d-%03d", time.Now().UnixMilli(), rand.Intn(1000))
}
