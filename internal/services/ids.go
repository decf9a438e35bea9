package stamps

import (
	"fmt"
	"strings"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/google/uuid"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ID вида prefix_<unix ms>_<случайный суффикс>
type RandomIDs struct {
	clock interf.Clock
}

func NewRandomIDs(clock interf.Clock) *RandomIDs {
	return &RandomIDs{clock}
}

func randomSuffix(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (r *RandomIDs) NewID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, r.clock.Now().UnixMilli(), randomSuffix(9))
}

// Персональный код клиента
func (r *RandomIDs) CustomerCode(customerId string) string {
	return "QR_" + strings.ToUpper(customerId) + "_" + strings.ToUpper(randomSuffix(6))
}

// Код из реестра. Коллизии не проверяются: суффикс случайный
func (r *RandomIDs) RegistryCode(t model.QRType) string {
	return fmt.Sprintf("QR_%s_%d_%s", strings.ToUpper(string(t)), r.clock.Now().UnixMilli(), strings.ToUpper(randomSuffix(6)))
}
