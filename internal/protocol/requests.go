package protocol

import "encoding/binary"

// EncodeStatus builds a CMD_STATUS request (empty body).
func EncodeStatus() ([]byte, Command) { return nil, CmdStatus }

// EncodeVersion builds a CMD_VERSION request (empty body).
func EncodeVersion() ([]byte, Command) { return nil, CmdVersion }

// EncodeReset builds a CMD_RESET request (empty body).
func EncodeReset() ([]byte, Command) { return nil, CmdReset }

// EncodeAbort builds a CMD_ABORT request (empty body).
func EncodeAbort() ([]byte, Command) { return nil, CmdAbort }

// EncodeCapture builds a CMD_CAPTURE request (empty body).
func EncodeCapture() ([]byte, Command) { return nil, CmdCapture }

// EncodeListTemplates builds a CMD_LIST_TEMPLATES request (empty body).
func EncodeListTemplates() ([]byte, Command) { return nil, CmdListTemplates }

// EncodeFactoryReset builds a CMD_FACTORY_RESET request (empty body).
func EncodeFactoryReset() ([]byte, Command) { return nil, CmdFactoryReset }

// EncodeEnrollAny builds a CMD_ENROLL request that enrolls into the next free
// template slot (id_type = ENROLL_ANY).
func EncodeEnrollAny() ([]byte, Command) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], idTypeEnrollAny)
	return body, CmdEnroll
}

// EncodeEnroll builds a CMD_ENROLL request, targeting a specific template
// slot when id is non-nil and falling back to EncodeEnrollAny otherwise.
func EncodeEnroll(id *uint16) ([]byte, Command) {
	if id == nil {
		return EncodeEnrollAny()
	}
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], idTypeEnrollOne)
	binary.LittleEndian.PutUint16(body[2:4], *id)
	return body, CmdEnroll
}

// EncodeIdentifyAny builds a CMD_IDENTIFY request matching against the full
// enrolled set (id_type = IDENTIFY_ANY).
func EncodeIdentifyAny() ([]byte, Command) {
	body := make([]byte, 6)
	binary.LittleEndian.PutUint16(body[0:2], idTypeIdentifyAny)
	binary.LittleEndian.PutUint16(body[2:4], 0)
	binary.LittleEndian.PutUint16(body[4:6], 0)
	return body, CmdIdentify
}

// EncodeDeleteTemplate builds a CMD_DELETE_TEMPLATE request for a single id.
func EncodeDeleteTemplate(id uint16) ([]byte, Command) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], idTypeDeleteOne)
	binary.LittleEndian.PutUint16(body[2:4], id)
	return body, CmdDeleteTemplate
}

// EncodeGetTemplateData builds a CMD_GET_TEMPLATE_DATA request for a single
// template id. The second field is a legacy placeholder the firmware ignores
// and is always sent as zero.
func EncodeGetTemplateData(id uint16) ([]byte, Command) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], id)
	binary.LittleEndian.PutUint16(body[2:4], 0)
	return body, CmdGetTemplateData
}

// TemplateSize is the fixed buffer size the firmware expects when receiving
// a template upload, regardless of the template's actual enrolled size.
const TemplateSize = 18000

// EncodePutTemplateData builds a CMD_PUT_TEMPLATE_DATA request announcing an
// upload of size bytes of template data into slot id, to follow over
// CMD_DATA_PUT frames.
func EncodePutTemplateData(id uint16, size uint16) ([]byte, Command) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint16(body[0:2], id)
	binary.LittleEndian.PutUint16(body[2:4], size)
	return body, CmdPutTemplateData
}

// EncodeImageData builds a CMD_IMAGE_DATA request. The single u32 field is a
// fixed image-format selector the firmware requires.
func EncodeImageData() ([]byte, Command) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body[0:4], 2)
	return body, CmdImageData
}

// EncodeGetSystemConfig builds a CMD_GET_SYSTEM_CONFIG request. useDefault
// selects factory defaults instead of the currently active configuration.
func EncodeGetSystemConfig(useDefault bool) ([]byte, Command) {
	body := make([]byte, 2)
	if useDefault {
		binary.LittleEndian.PutUint16(body[0:2], 0)
	} else {
		binary.LittleEndian.PutUint16(body[0:2], 1)
	}
	return body, CmdGetSystemConfig
}

// SystemConfig mirrors the fields of GetSystemConfigResponse accepted back as
// a SET_SYSTEM_CONFIG payload. Type and Unknown1 are intentionally absent:
// per the resolved open question in SPEC_FULL.md §9, the Type field read back
// from GET is stripped before round-tripping into SET.
type SystemConfig struct {
	Version             uint16
	FingerScanInterval  uint16
	EventAtBoot         bool
	UARTStopMode        bool
	IRQBeforeTX         bool
	AllowFactoryReset   bool
	UARTIRQDelay        uint8
	UARTBaudrate        uint8
	MaxConsecutiveFails uint8
	LockoutTime         uint8
	IdleBeforeSleep     uint16
	EnrollTouches       uint8
	ImmobileTouches     uint8
	I2CAddress          uint16
}

// EncodeSetSystemConfig builds a CMD_SET_SYSTEM_CONFIG request, packing the
// boolean fields into the sys_flags bitmask the firmware expects:
// bit 0x001 EventAtBoot, bit 0x010 UARTStopMode, bit 0x020 IRQBeforeTX,
// bit 0x100 AllowFactoryReset. sys_flags is a u32 field even though only its
// low byte and bit 0x100 are meaningful; the trailing u16 is a constant the
// firmware requires set to 1.
func EncodeSetSystemConfig(cfg SystemConfig) ([]byte, Command) {
	var sysFlags uint32
	if cfg.EventAtBoot {
		sysFlags |= 0x001
	}
	if cfg.UARTStopMode {
		sysFlags |= 0x010
	}
	if cfg.IRQBeforeTX {
		sysFlags |= 0x020
	}
	if cfg.AllowFactoryReset {
		sysFlags |= 0x100
	}

	body := make([]byte, 20)
	binary.LittleEndian.PutUint16(body[0:2], cfg.Version)
	binary.LittleEndian.PutUint16(body[2:4], cfg.FingerScanInterval)
	binary.LittleEndian.PutUint32(body[4:8], sysFlags)
	body[8] = cfg.UARTIRQDelay
	body[9] = cfg.UARTBaudrate
	body[10] = cfg.MaxConsecutiveFails
	body[11] = cfg.LockoutTime
	binary.LittleEndian.PutUint16(body[12:14], cfg.IdleBeforeSleep)
	body[14] = cfg.EnrollTouches
	body[15] = cfg.ImmobileTouches
	binary.LittleEndian.PutUint16(body[16:18], cfg.I2CAddress)
	binary.LittleEndian.PutUint16(body[18:20], 1)
	return body, CmdSetSystemConfig
}

// EncodeSetCryptoKey builds a CMD_SET_CRYPTO_KEY request carrying key,
// length-prefixed by a single byte as the firmware expects.
func EncodeSetCryptoKey(key []byte) ([]byte, Command) {
	body := make([]byte, 1+len(key))
	body[0] = byte(len(key))
	copy(body[1:], key)
	return body, CmdSetCryptoKey
}

// EncodeDataGet builds a CMD_DATA_GET request pulling up to chunkSize bytes
// of whatever bulk transfer (template or image) is currently in progress.
func EncodeDataGet(chunkSize uint32) ([]byte, Command) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body[0:4], chunkSize)
	return body, CmdDataGet
}

// EncodeDataPut builds a CMD_DATA_PUT request pushing one chunk of a bulk
// transfer, announcing how many bytes remain to be sent, this chunk included.
func EncodeDataPut(remaining uint32, data []byte) ([]byte, Command) {
	body := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint32(body[0:4], remaining)
	binary.LittleEndian.PutUint32(body[4:8], uint32(len(data)))
	copy(body[8:], data)
	return body, CmdDataPut
}
