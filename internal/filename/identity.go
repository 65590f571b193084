package filename

import (
	"strings"

	"github.com/google/uuid"
)

// NamespaceRecordIdentity is the UUID namespace for deterministic record ids,
// derived from "ftmgmt/record-identity/v1" under the URL namespace.
var NamespaceRecordIdentity = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ftmgmt/record-identity/v1"))

// RecordID returns a deterministic UUID v5 for the bare filename of fullname.
// Compressed and uncompressed variants, and the same file under different
// directories, get the same id.
func RecordID(fullname string) uuid.UUID {
	return uuid.NewSHA1(NamespaceRecordIdentity, []byte(strings.ToLower(Bare(fullname))))
}
