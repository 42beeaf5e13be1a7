package protocol

import "fmt"

// Response is a decoded inbound record: one concrete type per command code,
// tagged with the frame type it arrived as (direct reply vs. unsolicited
// event) since several commands — STATUS foremost — are parsed identically
// either way and callers must be able to tell them apart.
type Response interface {
	Command() Command
	Kind() FrameType
	String() string
}

// base is embedded by every concrete response to carry the common tag
// fields without repeating the two accessor methods everywhere.
type base struct {
	cmd  Command
	kind FrameType
}

func (b base) Command() Command { return b.cmd }
func (b base) Kind() FrameType   { return b.kind }

// StatusResponse is CMD_STATUS (0x40).
type StatusResponse struct {
	base
	Event       Event
	States      []State
	AppFailCode AppFailCode
}

func (r *StatusResponse) String() string {
	return fmt.Sprintf("Status{event=%s, states=%v, app_fail_code=%s}", r.Event, r.States, r.AppFailCode)
}

// VersionResponse is CMD_VERSION (0x41).
type VersionResponse struct {
	base
	MCUID      [12]byte
	FWID       uint8
	FuseLevel  uint8
	Version    string
}

func (r *VersionResponse) String() string {
	return fmt.Sprintf("Version{fw_id=%d, fuse_level=%d, version=%q}", r.FWID, r.FuseLevel, r.Version)
}

// ImageDataResponse is CMD_IMAGE_DATA (0x53).
type ImageDataResponse struct {
	base
	Size         uint32
	Width        uint16
	Height       uint16
	Type         uint16
	MaxChunkSize uint16
}

func (r *ImageDataResponse) String() string {
	return fmt.Sprintf("ImageData{size=%d, %dx%d, type=%d, max_chunk=%d}", r.Size, r.Width, r.Height, r.Type, r.MaxChunkSize)
}

// EnrollResponse is CMD_ENROLL (0x54).
type EnrollResponse struct {
	base
	TemplateID       uint16
	Feedback         EnrollFeedback
	SamplesRemaining uint8
}

func (r *EnrollResponse) String() string {
	return fmt.Sprintf("Enroll{template_id=%d, feedback=%s, samples_remaining=%d}", r.TemplateID, r.Feedback, r.SamplesRemaining)
}

// IdentifyResponse is CMD_IDENTIFY (0x55).
type IdentifyResponse struct {
	base
	FingerFound bool
	TemplateID  *uint16
	Tag         uint16
}

func (r *IdentifyResponse) String() string {
	if r.TemplateID != nil {
		return fmt.Sprintf("Identify{finger_found=true, template_id=%d, tag=%d}", *r.TemplateID, r.Tag)
	}
	return fmt.Sprintf("Identify{finger_found=false, tag=%d}", r.Tag)
}

// ListTemplatesResponse is CMD_LIST_TEMPLATES (0x60).
type ListTemplatesResponse struct {
	base
	TemplateIDs []uint16
}

func (r *ListTemplatesResponse) String() string {
	return fmt.Sprintf("ListTemplates{ids=%v}", r.TemplateIDs)
}

// GetTemplateDataResponse is CMD_GET_TEMPLATE_DATA (0x62).
type GetTemplateDataResponse struct {
	base
	TemplateID   uint16
	MaxChunkSize uint16
	TotalSize    uint16
}

func (r *GetTemplateDataResponse) String() string {
	return fmt.Sprintf("GetTemplateData{template_id=%d, max_chunk=%d, total_size=%d}", r.TemplateID, r.MaxChunkSize, r.TotalSize)
}

// PutTemplateDataResponse is CMD_PUT_TEMPLATE_DATA (0x63).
type PutTemplateDataResponse struct {
	base
	ID         uint16
	ChunkSize  uint16
	TotalSize  uint16
}

func (r *PutTemplateDataResponse) String() string {
	return fmt.Sprintf("PutTemplateData{id=%d, chunk=%d, total=%d}", r.ID, r.ChunkSize, r.TotalSize)
}

// GetSystemConfigResponse is CMD_GET_SYSTEM_CONFIG (0x6A).
//
// Type and Unknown1 are the leading two fields the original parser reads but
// that spec.md's HTTP-facing table omits; they are kept for round-trip
// fidelity (Type is stripped before PUT per the open question in §9) but not
// serialized to HTTP clients.
type GetSystemConfigResponse struct {
	base
	Type                 uint16
	Unknown1             uint16
	Version              uint16
	FingerScanInterval   uint16
	EventAtBoot          bool
	UARTStopMode         bool
	IRQBeforeTX          bool
	AllowFactoryReset    bool
	UARTIRQDelay         uint8
	UARTBaudrate         uint8
	MaxConsecutiveFails  uint8
	LockoutTime          uint8
	IdleBeforeSleep      uint16
	EnrollTouches        uint8
	ImmobileTouches      uint8
	I2CAddress           uint16
}

func (r *GetSystemConfigResponse) String() string {
	return fmt.Sprintf("GetSystemConfig{version=%d, i2c_address=0x%04x}", r.Version, r.I2CAddress)
}

// DataGetResponse is CMD_DATA_GET (0x101).
type DataGetResponse struct {
	base
	Remaining uint32
	ChunkSize uint32
	Data      []byte
}

func (r *DataGetResponse) String() string {
	return fmt.Sprintf("DataGet{remaining=%d, chunk_size=%d, data_len=%d}", r.Remaining, r.ChunkSize, len(r.Data))
}

// DataPutResponse is CMD_DATA_PUT (0x102).
type DataPutResponse struct {
	base
	TotalReceived uint32
}

func (r *DataPutResponse) String() string {
	return fmt.Sprintf("DataPut{total_received=%d}", r.TotalReceived)
}

// NavigationResponse is CMD_NAVIGATION (0x200).
type NavigationResponse struct {
	base
	Gesture NavEvent
	Samples []uint16
}

func (r *NavigationResponse) String() string {
	return fmt.Sprintf("Navigation{gesture=%s, samples=%v}", r.Gesture, r.Samples)
}
