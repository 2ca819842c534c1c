package hostsched

import (
	"encoding/binary"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf16"
)

// taskFolder is the Task Scheduler folder all toolshed tasks live in,
// so foreign tasks are never touched.
const taskFolder = `\` + Namespace + `\`

// utf16LEBytes encodes s as UTF-16LE with a byte-order mark, the
// encoding the generated task XML declares and the one schtasks reads
// reliably. Kept free of build tags so the encoding is testable
// everywhere.
func utf16LEBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2+2*len(units))
	out[0], out[1] = 0xFF, 0xFE
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[2+2*i:], u)
	}
	return out
}

// parseTaskQueryCSV extracts our task names from `schtasks /Query /FO
// CSV /NH` output. CSV is the one schtasks format whose first column is
// the bare task path regardless of the system locale; LIST output
// labels rows in the display language.
func parseTaskQueryCSV(out, prefix string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1

	var names []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}
		full := strings.TrimSpace(rec[0])
		if !strings.HasPrefix(full, taskFolder) {
			continue
		}
		name := full[strings.LastIndexByte(full, '\\')+1:]
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}
