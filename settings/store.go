package settings

import "tinygo.org/x/cncmotion/axis"

// Axis-setting IDs are laid out AxisSettingsStart + kind*AxisSettingsIncrement + axisIndex,
// kind in [0, AxisNSettings). Non-axis setting IDs below AxisSettingsStart
// follow the numbering original_source/grbl/settings.c uses for the same
// parameters, preserved here for wire-format parity even though the
// on-disk record layout (persist.go) is not byte-compatible with it.
const (
	AxisSettingsStart     = 100
	AxisSettingsIncrement = 10
	AxisNSettings         = 5 // steps-per-mm, max-rate, acceleration, max-travel, endstop-adj

	idPulseMicroseconds   = 0
	idStepperIdleLockTime = 1
	idStepInvertMask      = 2
	idDirInvertMask       = 3
	idInvertStepperEnable = 4
	idInvertLimitPins     = 5
	idInvertProbePin      = 6
	idStatusReportMask    = 10
	idJunctionDeviation   = 11
	idArcTolerance        = 12
	idReportInches        = 13
	idSoftLimitEnable     = 20
	idHardLimitEnable     = 21
	idHomingEnable        = 22
	idHomingDirMask       = 23
	idHomingFeedRate      = 24
	idHomingSeekRate      = 25
	idHomingDebounceDelay = 26
	idHomingPulloff       = 27
	idRpmMax              = 30
	idRpmMin              = 31
	idLaserMode           = 32
	idLaserMax            = 33
	idLaserMin            = 34
	idPwmMax              = 35
	idPwmMin              = 36

	axisKindStepsPerMm   = 0
	axisKindMaxRate      = 1
	axisKindAcceleration = 2
	axisKindMaxTravel    = 3
	axisKindEndstopAdj   = 4

	// MaxStepRateHz bounds steps-per-mm * max-rate, mirroring the
	// source's MAX_STEP_RATE_HZ sanity check. 0 disables the check.
	MaxStepRateHz = 30000
)

// Hooks are the side effects a successful Store call on certain
// parameter IDs triggers downstream, standing in for the free function
// calls original_source/grbl/settings.c makes inline (st_generate_step_dir_invert_masks,
// spindle_init, limits_init, and so on). Any hook left nil is a no-op.
type Hooks struct {
	StepDirInvertMasksChanged func()
	LimitPinsChanged          func()
	ProbeInvertChanged        func()
	SpindleChanged            func()
	PWMChanged                func()
	WorkOffsetChanged         func()
}

// Store validates and applies a single $paramID=value write against s,
// invoking any relevant hook on success. It does not persist s; callers
// combine it with Store.WriteGlobal once the write is accepted.
func Store(s *Settings, paramID int, value float32, hooks Hooks) Status {
	if value < 0 {
		return StatusNegativeValue
	}
	if paramID >= AxisSettingsStart {
		return storeAxisSetting(s, paramID, value)
	}
	n := uint32(value)
	switch paramID {
	case idPulseMicroseconds:
		if n < 3 {
			return StatusSettingStepPulseMin
		}
		s.PulseMicroseconds = uint16(n)
	case idStepperIdleLockTime:
		s.StepperIdleLockTime = uint8(n)
	case idStepInvertMask:
		s.StepInvertMask = uint8(n)
		call(hooks.StepDirInvertMasksChanged)
	case idDirInvertMask:
		s.DirInvertMask = uint8(n)
		call(hooks.StepDirInvertMasksChanged)
	case idInvertStepperEnable:
		setFlag(s, FlagInvertStepperEnable, n != 0)
	case idInvertLimitPins:
		setFlag(s, FlagInvertLimitPins, n != 0)
		call(hooks.LimitPinsChanged)
	case idInvertProbePin:
		setFlag(s, FlagInvertProbePin, n != 0)
		call(hooks.ProbeInvertChanged)
	case idStatusReportMask:
		s.StatusReportMask = uint8(n)
	case idJunctionDeviation:
		s.JunctionDeviation = value
	case idArcTolerance:
		s.ArcTolerance = value
	case idReportInches:
		setFlag(s, FlagReportInches, n != 0)
		call(hooks.WorkOffsetChanged)
	case idSoftLimitEnable:
		if n != 0 && !s.Flags.Has(FlagHomingEnable) {
			return StatusSoftLimitError
		}
		setFlag(s, FlagSoftLimitEnable, n != 0)
	case idHardLimitEnable:
		setFlag(s, FlagHardLimitEnable, n != 0)
		call(hooks.LimitPinsChanged)
	case idHomingEnable:
		setFlag(s, FlagHomingEnable, n != 0)
		if n == 0 {
			setFlag(s, FlagSoftLimitEnable, false)
		}
	case idHomingDirMask:
		s.HomingDirMask = uint8(n)
	case idHomingFeedRate:
		s.HomingFeedRate = value
	case idHomingSeekRate:
		s.HomingSeekRate = value
	case idHomingDebounceDelay:
		s.HomingDebounceDelay = uint16(n)
	case idHomingPulloff:
		s.HomingPulloff = value
	case idRpmMax:
		s.RpmMax = value
		call(hooks.SpindleChanged)
	case idRpmMin:
		s.RpmMin = value
		call(hooks.SpindleChanged)
	case idLaserMode:
		setFlag(s, FlagLaserMode, n != 0)
		call(hooks.SpindleChanged)
	case idLaserMax:
		s.LaserMax = value
		call(hooks.SpindleChanged)
	case idLaserMin:
		s.LaserMin = value
		call(hooks.SpindleChanged)
	case idPwmMax:
		s.PwmMax = value
		call(hooks.PWMChanged)
	case idPwmMin:
		s.PwmMin = value
		call(hooks.PWMChanged)
	default:
		return StatusInvalidStatement
	}
	return StatusOK
}

func storeAxisSetting(s *Settings, paramID int, value float32) Status {
	p := paramID - AxisSettingsStart
	kind := p / AxisSettingsIncrement
	idx := p % AxisSettingsIncrement
	if kind >= AxisNSettings || idx >= s.NAxis || idx >= axis.MaxAxes {
		return StatusInvalidStatement
	}
	switch kind {
	case axisKindStepsPerMm:
		if exceedsStepRate(value, s.MaxRate[idx]) {
			return StatusMaxStepRateExceeded
		}
		s.StepsPerMm[idx] = value
	case axisKindMaxRate:
		if exceedsStepRate(s.StepsPerMm[idx], value) {
			return StatusMaxStepRateExceeded
		}
		s.MaxRate[idx] = value
	case axisKindAcceleration:
		s.Acceleration[idx] = value * 3600
	case axisKindMaxTravel:
		s.MaxTravel[idx] = -value
	case axisKindEndstopAdj:
		s.EndstopAdj[idx] = value
	}
	return StatusOK
}

func exceedsStepRate(stepsPerMm, maxRate float32) bool {
	return MaxStepRateHz > 0 && stepsPerMm*maxRate > float32(MaxStepRateHz*60)
}

func setFlag(s *Settings, f Flags, on bool) {
	if on {
		s.Flags |= f
	} else {
		s.Flags &^= f
	}
}

func call(f func()) {
	if f != nil {
		f()
	}
}
