package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex sub_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

// initializeSID initializes the shortid generator once
func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateShortIDWithPrefix returns a short ID with a prefix.
// Total length is capped at 12 characters, e.g. `MBR_xYZ12A8Q`.
// Used for member-facing reference codes on renewal notices.
func GenerateShortIDWithPrefix(prefix string) string {
	once.Do(initializeSID)

	id, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	id = strings.ReplaceAll(id, "-", "")

	availableLen := 12 - len(prefix)
	if availableLen <= 0 {
		return ""
	}

	if len(id) > availableLen {
		id = id[:availableLen]
	}

	shortId := strings.ToUpper(fmt.Sprintf("%s%s", prefix, id))

	return shortId
}

const (
	// Prefixes for all domains and entities
	UUID_PREFIX_SUBSCRIPTION         = "sub"
	UUID_PREFIX_PLAN                 = "plan"
	UUID_PREFIX_MEMBER               = "mbr"
	UUID_PREFIX_PRORATION            = "pror"
	UUID_PREFIX_LIFECYCLE_EVENT      = "evt"
	UUID_PREFIX_RENEWAL              = "rnw"
	UUID_PREFIX_SCAN_RUN             = "scan"
	SHORT_ID_PREFIX_RENEWAL_NOTICE   = "RN_"
	SHORT_ID_PREFIX_MEMBER_REFERENCE = "M_"
)
