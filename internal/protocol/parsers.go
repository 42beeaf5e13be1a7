package protocol

import "encoding/binary"

// responseParsers dispatches a command code to the function that parses its
// payload, mirroring the teacher's per-message-type parser map in
// internal/protocol/parser.go but keyed on the FPC2534 command set.
var responseParsers = map[Command]func([]byte, FrameType) (Response, error){
	CmdStatus:          parseStatus,
	CmdVersion:         parseVersion,
	CmdImageData:       parseImageData,
	CmdEnroll:          parseEnroll,
	CmdIdentify:        parseIdentify,
	CmdListTemplates:   parseListTemplates,
	CmdGetTemplateData: parseGetTemplateData,
	CmdPutTemplateData: parsePutTemplateData,
	CmdGetSystemConfig: parseGetSystemConfig,
	CmdSetSystemConfig: parseAck(CmdSetSystemConfig),
	CmdReset:           parseAck(CmdReset),
	CmdAbort:           parseAck(CmdAbort),
	CmdCapture:         parseAck(CmdCapture),
	CmdDeleteTemplate:  parseAck(CmdDeleteTemplate),
	CmdSetCryptoKey:    parseAck(CmdSetCryptoKey),
	CmdFactoryReset:    parseAck(CmdFactoryReset),
	CmdDataGet:         parseDataGet,
	CmdDataPut:         parseDataPut,
	CmdNavigation:      parseNavigation,
}

func requireLen(payload []byte, n int, cmd Command) error {
	if len(payload) < n {
		return newDecodeError("%s payload too short: got %d bytes, want at least %d", cmd, len(payload), n)
	}
	return nil
}

func parseStatus(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 6, CmdStatus); err != nil {
		return nil, err
	}
	event := Event(binary.LittleEndian.Uint16(payload[0:2]))
	mask := binary.LittleEndian.Uint16(payload[2:4])
	appFail := AppFailCode(binary.LittleEndian.Uint16(payload[4:6]))
	return &StatusResponse{
		base:        base{cmd: CmdStatus, kind: ft},
		Event:       event,
		States:      StatesFromMask(mask),
		AppFailCode: appFail,
	}, nil
}

func parseVersion(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 16, CmdVersion); err != nil {
		return nil, err
	}
	var mcuID [12]byte
	copy(mcuID[:], payload[0:12])
	fwID := payload[12]
	fuseLevel := payload[13]
	// The length field at [14:16] is part of the firmware's fixed header but
	// the remainder of the payload is the whole version string regardless of
	// its value.
	rest := payload[16:]
	return &VersionResponse{
		base:      base{cmd: CmdVersion, kind: ft},
		MCUID:     mcuID,
		FWID:      fwID,
		FuseLevel: fuseLevel,
		Version:   string(rest),
	}, nil
}

func parseImageData(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 12, CmdImageData); err != nil {
		return nil, err
	}
	return &ImageDataResponse{
		base:         base{cmd: CmdImageData, kind: ft},
		Size:         binary.LittleEndian.Uint32(payload[0:4]),
		Width:        binary.LittleEndian.Uint16(payload[4:6]),
		Height:       binary.LittleEndian.Uint16(payload[6:8]),
		Type:         binary.LittleEndian.Uint16(payload[8:10]),
		MaxChunkSize: binary.LittleEndian.Uint16(payload[10:12]),
	}, nil
}

func parseEnroll(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 4, CmdEnroll); err != nil {
		return nil, err
	}
	return &EnrollResponse{
		base:             base{cmd: CmdEnroll, kind: ft},
		TemplateID:       binary.LittleEndian.Uint16(payload[0:2]),
		Feedback:         EnrollFeedback(payload[2]),
		SamplesRemaining: payload[3],
	}, nil
}

func parseIdentify(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 8, CmdIdentify); err != nil {
		return nil, err
	}
	result := binary.LittleEndian.Uint16(payload[0:2])
	// payload[2:4] is a template-type field the sensor reports but that
	// neither the original client nor this gateway interprets.
	id := binary.LittleEndian.Uint16(payload[4:6])
	tag := binary.LittleEndian.Uint16(payload[6:8])
	resp := &IdentifyResponse{
		base: base{cmd: CmdIdentify, kind: ft},
		Tag:  tag,
	}
	if result == identifyResultFound {
		resp.FingerFound = true
		templateID := id
		resp.TemplateID = &templateID
	}
	return resp, nil
}

// parseListTemplates decodes LIST_TEMPLATES. The first u16 in the payload is
// a count field the firmware emits but that carries no information beyond
// the payload's own length, so it is read and discarded; every u16 after it
// is a template id.
func parseListTemplates(payload []byte, ft FrameType) (Response, error) {
	if len(payload)%2 != 0 {
		return nil, newDecodeError("LIST_TEMPLATES payload has odd length %d", len(payload))
	}
	if len(payload) < 2 {
		return nil, newDecodeError("LIST_TEMPLATES payload too short: got %d bytes, want at least 2", len(payload))
	}
	count := len(payload)/2 - 1
	ids := make([]uint16, 0, count)
	for i := 2; i < len(payload); i += 2 {
		ids = append(ids, binary.LittleEndian.Uint16(payload[i:i+2]))
	}
	return &ListTemplatesResponse{
		base:        base{cmd: CmdListTemplates, kind: ft},
		TemplateIDs: ids,
	}, nil
}

func parseGetTemplateData(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 6, CmdGetTemplateData); err != nil {
		return nil, err
	}
	return &GetTemplateDataResponse{
		base:         base{cmd: CmdGetTemplateData, kind: ft},
		TemplateID:   binary.LittleEndian.Uint16(payload[0:2]),
		MaxChunkSize: binary.LittleEndian.Uint16(payload[2:4]),
		TotalSize:    binary.LittleEndian.Uint16(payload[4:6]),
	}, nil
}

func parsePutTemplateData(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 6, CmdPutTemplateData); err != nil {
		return nil, err
	}
	return &PutTemplateDataResponse{
		base:      base{cmd: CmdPutTemplateData, kind: ft},
		ID:        binary.LittleEndian.Uint16(payload[0:2]),
		ChunkSize: binary.LittleEndian.Uint16(payload[2:4]),
		TotalSize: binary.LittleEndian.Uint16(payload[4:6]),
	}, nil
}

// parseGetSystemConfig decodes the 24-byte GET_SYSTEM_CONFIG payload, laid
// out as struct.pack('<HHHHIBBBBHBBHH', ...) in the original: type,
// unknown1, version, finger_scan_interval u16 each, sys_flags as a u32 (not
// u16 — the firmware pads it to a 4-byte-aligned field even though only the
// low byte and bit 0x100 are ever set), then the byte/u16 tail.
func parseGetSystemConfig(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 24, CmdGetSystemConfig); err != nil {
		return nil, err
	}
	sysFlags := binary.LittleEndian.Uint32(payload[8:12])
	return &GetSystemConfigResponse{
		base:                base{cmd: CmdGetSystemConfig, kind: ft},
		Type:                binary.LittleEndian.Uint16(payload[0:2]),
		Unknown1:            binary.LittleEndian.Uint16(payload[2:4]),
		Version:             binary.LittleEndian.Uint16(payload[4:6]),
		FingerScanInterval:  binary.LittleEndian.Uint16(payload[6:8]),
		EventAtBoot:         sysFlags&0x001 != 0,
		UARTStopMode:        sysFlags&0x010 != 0,
		IRQBeforeTX:         sysFlags&0x020 != 0,
		AllowFactoryReset:   sysFlags&0x100 != 0,
		UARTIRQDelay:        payload[12],
		UARTBaudrate:        payload[13],
		MaxConsecutiveFails: payload[14],
		LockoutTime:         payload[15],
		IdleBeforeSleep:     binary.LittleEndian.Uint16(payload[16:18]),
		EnrollTouches:       payload[18],
		ImmobileTouches:     payload[19],
		I2CAddress:          binary.LittleEndian.Uint16(payload[20:22]),
	}, nil
}

func parseDataGet(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 8, CmdDataGet); err != nil {
		return nil, err
	}
	remaining := binary.LittleEndian.Uint32(payload[0:4])
	chunkSize := binary.LittleEndian.Uint32(payload[4:8])
	data := payload[8:]
	return &DataGetResponse{
		base:      base{cmd: CmdDataGet, kind: ft},
		Remaining: remaining,
		ChunkSize: chunkSize,
		Data:      append([]byte(nil), data...),
	}, nil
}

func parseDataPut(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 4, CmdDataPut); err != nil {
		return nil, err
	}
	return &DataPutResponse{
		base:          base{cmd: CmdDataPut, kind: ft},
		TotalReceived: binary.LittleEndian.Uint32(payload[0:4]),
	}, nil
}

func parseNavigation(payload []byte, ft FrameType) (Response, error) {
	if err := requireLen(payload, 4, CmdNavigation); err != nil {
		return nil, err
	}
	gesture := NavEvent(binary.LittleEndian.Uint16(payload[0:2]))
	sampleCount := binary.LittleEndian.Uint16(payload[2:4])
	rest := payload[4:]
	if uint16(len(rest)) < sampleCount*2 {
		return nil, newDecodeError("NAVIGATION sample data truncated: got %d bytes, want %d", len(rest), sampleCount*2)
	}
	samples := make([]uint16, 0, sampleCount)
	for i := 0; i < int(sampleCount)*2; i += 2 {
		samples = append(samples, binary.LittleEndian.Uint16(rest[i:i+2]))
	}
	return &NavigationResponse{
		base:    base{cmd: CmdNavigation, kind: ft},
		Gesture: gesture,
		Samples: samples,
	}, nil
}

// parseAck returns a parser for commands whose response carries no payload
// of interest beyond confirming the command code and frame type — the
// sensor's ack is the STATUS event that follows, not this frame's body.
func parseAck(cmd Command) func([]byte, FrameType) (Response, error) {
	return func(_ []byte, ft FrameType) (Response, error) {
		return &AckResponse{base: base{cmd: cmd, kind: ft}}, nil
	}
}

// AckResponse is returned for commands whose meaningful result arrives via a
// subsequent STATUS event rather than in this response's own body.
type AckResponse struct {
	base
}

func (r *AckResponse) String() string {
	return r.cmd.String() + "{ack}"
}
