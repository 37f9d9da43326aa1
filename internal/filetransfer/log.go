package filetransfer

import (
	"log"
	"os"
)

// protoLog carries the bracketed protocol trace lines ("[send data] ...",
// "[recv ack] ...", and so on). It writes to stderr with no timestamp or
// prefix so the emitted text matches the external contract exactly.
var protoLog = log.New(os.Stderr, "", 0)
