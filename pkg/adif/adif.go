// Package adif parses Amateur Data Interchange Format logs into QSO records.
package adif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"rotorgo/pkg/geo"
	"rotorgo/pkg/model"
)

// ErrMalformedField is returned when a field tag cannot be parsed.
var ErrMalformedField = errors.New("malformed adif field")

// numericFields are converted to numbers on parse.
var numericFields = map[string]bool{
	"freq":        true,
	"freq_rx":     true,
	"tx_pwr":      true,
	"distance":    true,
	"cqz":         true,
	"ituz":        true,
	"dxcc":        true,
	"my_cq_zone":  true,
	"my_dxcc":     true,
	"my_itu_zone": true,
}

// Record is one parsed ADIF record.
type Record struct {
	Fields  map[string]string  // lowercase field name -> trimmed value
	Numbers map[string]float64 // numeric fields that parsed cleanly
	Time    time.Time          // qso_date + time_on in UTC, zero if absent
}

// Get returns a field value or "".
func (r *Record) Get(name string) string {
	return r.Fields[strings.ToLower(name)]
}

// ParseFile parses an ADIF file from disk.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open adif: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads every record from r. Anything before <EOH> is header and ignored;
// a file without a header starts straight with records.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read adif: %w", err)
	}

	lower := bytes.ToLower(data)
	if i := bytes.Index(lower, []byte("<eoh>")); i >= 0 {
		data = data[i+len("<eoh>"):]
		lower = lower[i+len("<eoh>"):]
	}

	var out []Record
	for len(data) > 0 {
		end := bytes.Index(lower, []byte("<eor>"))
		chunk := data
		if end >= 0 {
			chunk = data[:end]
			data = data[end+len("<eor>"):]
			lower = lower[end+len("<eor>"):]
		} else {
			data = nil
		}

		rec, err := parseRecord(chunk)
		if err != nil {
			return out, fmt.Errorf("record %d: %w", len(out)+1, err)
		}
		if len(rec.Fields) > 0 {
			out = append(out, rec)
		}
	}
	return out, nil
}

func parseRecord(chunk []byte) (Record, error) {
	rec := Record{
		Fields:  make(map[string]string),
		Numbers: make(map[string]float64),
	}

	for {
		open := bytes.IndexByte(chunk, '<')
		if open < 0 {
			break
		}
		closeIdx := bytes.IndexByte(chunk[open:], '>')
		if closeIdx < 0 {
			return rec, fmt.Errorf("%w: unterminated tag", ErrMalformedField)
		}
		tag := string(chunk[open+1 : open+closeIdx])
		chunk = chunk[open+closeIdx+1:]

		// <name:length> or <name:length:type>
		parts := strings.Split(tag, ":")
		if len(parts) < 2 {
			// Bare tags such as <eoh> inside a record carry no value
			continue
		}
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		length, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || length < 0 || name == "" {
			return rec, fmt.Errorf("%w: <%s>", ErrMalformedField, tag)
		}
		if length > len(chunk) {
			length = len(chunk)
		}
		value := strings.TrimSpace(string(chunk[:length]))
		chunk = chunk[length:]

		if value == "" {
			continue
		}
		rec.Fields[name] = value
		if numericFields[name] {
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				rec.Numbers[name] = f
			}
		}
	}

	rec.Time = parseTime(rec.Fields["qso_date"], rec.Fields["time_on"])
	return rec, nil
}

// parseTime combines YYYYMMDD and HHMM[SS]. A missing or bad time_on falls back to midnight.
func parseTime(date, timeOn string) time.Time {
	if len(date) != 8 {
		return time.Time{}
	}
	day, err := time.Parse("20060102", date)
	if err != nil {
		return time.Time{}
	}
	if len(timeOn) < 4 {
		return day
	}
	hms := (timeOn + "00")[:6]
	t, err := time.Parse("20060102150405", date+hms)
	if err != nil {
		return day
	}
	return t
}

// mapped fields are stored in QSO columns rather than the Fields map.
var mapped = map[string]bool{
	"call": true, "gridsquare": true, "band": true, "mode": true,
	"freq": true, "qso_date": true, "time_on": true, "lat": true, "lon": true,
}

// ToQSO converts a record. Position comes from explicit lat/lon when present,
// otherwise from the grid square. Records without a callsign are rejected.
func ToQSO(rec *Record) (*model.QSO, error) {
	call := strings.ToUpper(rec.Get("call"))
	if call == "" {
		return nil, fmt.Errorf("%w: record without call", ErrMalformedField)
	}

	q := &model.QSO{
		Call:    call,
		Grid:    rec.Get("gridsquare"),
		Band:    strings.ToLower(rec.Get("band")),
		Mode:    strings.ToUpper(rec.Get("mode")),
		FreqMHz: rec.Numbers["freq"],
		Time:    rec.Time,
	}

	if lat, okLat := parseCoord(rec.Get("lat")); okLat {
		if lon, okLon := parseCoord(rec.Get("lon")); okLon {
			q.Lat, q.Lon, q.HasPosition = lat, lon, true
		}
	}
	if !q.HasPosition && q.Grid != "" {
		if p, err := geo.ParseLocator(q.Grid); err == nil {
			q.Lat, q.Lon, q.HasPosition = p.Lat, p.Lon, true
		}
	}

	for k, v := range rec.Fields {
		if mapped[k] {
			continue
		}
		if q.Fields == nil {
			q.Fields = make(map[string]string)
		}
		q.Fields[k] = v
	}
	return q, nil
}

// parseCoord parses the ADIF location format "XDDD MM.MMM" (e.g. "N051 30.123").
func parseCoord(s string) (float64, bool) {
	if len(s) < 5 {
		return 0, false
	}
	sign := 1.0
	switch s[0] {
	case 'N', 'n', 'E', 'e':
	case 'S', 's', 'W', 'w':
		sign = -1
	default:
		return 0, false
	}
	parts := strings.Fields(s[1:])
	if len(parts) != 2 {
		return 0, false
	}
	deg, err1 := strconv.ParseFloat(parts[0], 64)
	minutes, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || minutes >= 60 {
		return 0, false
	}
	return sign * (deg + minutes/60), true
}
