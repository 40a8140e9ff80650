package settings

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"tinygo.org/x/cncmotion/axis"
	"tinygo.org/x/cncmotion/nvm"
)

// On-disk layout. This is a from-scratch record layout rather than a
// byte-for-byte copy of an existing EEPROM image (Design Notes: "if
// interoperability ... is not required, document it as a new on-disk
// version instead" — it is not required here, so the version byte below
// starts a fresh numbering and the axis-setting gap described in
// original_source/grbl/settings.c is not reproduced).
const (
	formatVersion = 20

	addrVersion = 0
	addrGlobal  = 1

	// NCoordSystems is the number of stored coordinate systems (work
	// offsets G54..G59 in the source's terms).
	NCoordSystems = 6
	coordRecordSize = axis.MaxAxes*4 + 1 // floats + checksum byte

	// NStartupLines mirrors N_STARTUP_LINE.
	NStartupLines  = 2
	startupLineCap = 80

	buildInfoCap = 80
)

var globalRecordSize = settingsEncodedSize() + 1 // + checksum byte

func settingsEncodedSize() int {
	b, _ := marshalSettings(&Settings{})
	return len(b)
}

func addrParameters() int     { return addrGlobal + globalRecordSize }
func addrStartupLine(n int) int {
	return addrParameters() + NCoordSystems*coordRecordSize + n*(startupLineCap+1)
}
func addrBuildInfo() int {
	return addrStartupLine(NStartupLines)
}

// marshalSettings encodes s in a fixed field order. NAxis is a runtime
// board parameter, not a persisted field, and is deliberately excluded.
func marshalSettings(s *Settings) ([]byte, error) {
	buf := new(bytes.Buffer)
	fields := []interface{}{
		s.PulseMicroseconds,
		s.StepperIdleLockTime,
		s.StepInvertMask,
		s.DirInvertMask,
		s.StatusReportMask,
		s.JunctionDeviation,
		s.ArcTolerance,
		s.RpmMax,
		s.RpmMin,
		s.LaserMax,
		s.LaserMin,
		s.PwmMax,
		s.PwmMin,
		s.HomingDirMask,
		s.HomingSeekRate,
		s.HomingFeedRate,
		s.HomingDebounceDelay,
		s.HomingPulloff,
		s.StepsPerMm,
		s.MaxRate,
		s.Acceleration,
		s.MaxTravel,
		s.EndstopAdj,
		uint8(s.Flags),
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func unmarshalSettings(data []byte, s *Settings) error {
	r := bytes.NewReader(data)
	fields := []interface{}{
		&s.PulseMicroseconds,
		&s.StepperIdleLockTime,
		&s.StepInvertMask,
		&s.DirInvertMask,
		&s.StatusReportMask,
		&s.JunctionDeviation,
		&s.ArcTolerance,
		&s.RpmMax,
		&s.RpmMin,
		&s.LaserMax,
		&s.LaserMin,
		&s.PwmMax,
		&s.PwmMin,
		&s.HomingDirMask,
		&s.HomingSeekRate,
		&s.HomingFeedRate,
		&s.HomingDebounceDelay,
		&s.HomingPulloff,
		&s.StepsPerMm,
		&s.MaxRate,
		&s.Acceleration,
		&s.MaxTravel,
		&s.EndstopAdj,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	var flags uint8
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return err
	}
	s.Flags = Flags(flags)
	return nil
}

// Store binds a Settings persistence surface to a backing nvm.Device.
// It is the Go shape of the source's free functions over a single
// global EEPROM (settings_read/write_global_settings and friends).
type Store struct {
	Dev   nvm.Device
	NAxis int
}

// NewStore returns a Store over dev for an nAxis machine.
func NewStore(dev nvm.Device, nAxis int) *Store {
	return &Store{Dev: dev, NAxis: nAxis}
}

// Init reads the persisted global settings, restoring factory defaults
// and persisting them if the version byte or checksum does not match
// (settings_init's fallback path).
func (st *Store) Init() (Settings, Status) {
	s, err := st.ReadGlobal()
	if err != nil {
		defaults := Defaults(st.NAxis)
		st.WriteGlobal(defaults)
		st.RestoreStartupLines()
		st.RestoreBuildInfo()
		st.RestoreCoordData()
		return defaults, StatusSettingReadFail
	}
	return s, StatusOK
}

// ReadGlobal reads and validates the persisted global settings record.
func (st *Store) ReadGlobal() (Settings, error) {
	if st.Dev.ReadByte(addrVersion) != formatVersion {
		return Settings{}, errors.New("settings: version mismatch")
	}
	buf := make([]byte, globalRecordSize-1)
	if err := nvm.ReadRecord(st.Dev, addrGlobal, buf); err != nil {
		return Settings{}, errors.Wrap(err, "settings: read global")
	}
	var s Settings
	if err := unmarshalSettings(buf, &s); err != nil {
		return Settings{}, errors.Wrap(err, "settings: decode global")
	}
	s.NAxis = st.NAxis
	return s, nil
}

// WriteGlobal persists s, stamping the format version byte.
func (st *Store) WriteGlobal(s Settings) error {
	st.Dev.WriteByte(addrVersion, formatVersion)
	buf, err := marshalSettings(&s)
	if err != nil {
		return err
	}
	nvm.WriteRecord(st.Dev, addrGlobal, buf)
	return nil
}

// ReadCoordData reads the stored axis offsets for coordinate system sel
// (0-based). The second return is false if the record is corrupt, in
// which case the caller should treat the offsets as all-zero.
func (st *Store) ReadCoordData(sel int) ([axis.MaxAxes]float32, bool) {
	var out [axis.MaxAxes]float32
	buf := make([]byte, axis.MaxAxes*4)
	if err := nvm.ReadRecord(st.Dev, addrParameters()+sel*coordRecordSize, buf); err != nil {
		return out, false
	}
	r := bytes.NewReader(buf)
	binary.Read(r, binary.LittleEndian, &out)
	return out, true
}

// WriteCoordData persists the axis offsets for coordinate system sel.
func (st *Store) WriteCoordData(sel int, data [axis.MaxAxes]float32) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, data)
	nvm.WriteRecord(st.Dev, addrParameters()+sel*coordRecordSize, buf.Bytes())
}

func (st *Store) RestoreCoordData() {
	var zero [axis.MaxAxes]float32
	for i := 0; i < NCoordSystems; i++ {
		st.WriteCoordData(i, zero)
	}
}

// ReadStartupLine reads startup line n (0-based, < NStartupLines). ok is
// false on a checksum mismatch, matching the source's "erase the
// line and report empty" recovery.
func (st *Store) ReadStartupLine(n int) (line string, ok bool) {
	buf := make([]byte, startupLineCap)
	if err := nvm.ReadRecord(st.Dev, addrStartupLine(n), buf); err != nil {
		nvm.ClearRecord(st.Dev, addrStartupLine(n), startupLineCap)
		return "", false
	}
	return trimNulls(buf), true
}

// StoreStartupLine persists a $N=... startup line.
func (st *Store) StoreStartupLine(n int, line string) {
	buf := make([]byte, startupLineCap)
	copy(buf, line)
	nvm.WriteRecord(st.Dev, addrStartupLine(n), buf)
}

func (st *Store) RestoreStartupLines() {
	for n := 0; n < NStartupLines; n++ {
		nvm.ClearRecord(st.Dev, addrStartupLine(n), startupLineCap)
	}
}

// ReadBuildInfo reads the persisted build-info string.
func (st *Store) ReadBuildInfo() (line string, ok bool) {
	buf := make([]byte, buildInfoCap)
	if err := nvm.ReadRecord(st.Dev, addrBuildInfo(), buf); err != nil {
		nvm.ClearRecord(st.Dev, addrBuildInfo(), buildInfoCap)
		return "", false
	}
	return trimNulls(buf), true
}

// StoreBuildInfo persists the build-info string.
func (st *Store) StoreBuildInfo(line string) {
	buf := make([]byte, buildInfoCap)
	copy(buf, line)
	nvm.WriteRecord(st.Dev, addrBuildInfo(), buf)
}

func (st *Store) RestoreBuildInfo() {
	nvm.ClearRecord(st.Dev, addrBuildInfo(), buildInfoCap)
}

func trimNulls(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
