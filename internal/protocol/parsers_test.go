package protocol

import "testing"

func TestParseListTemplatesSkipsCountField(t *testing.T) {
	// count=2 prefix followed by two ids.
	payload := []byte{2, 0, 10, 0, 20, 0}
	resp, err := parseListTemplates(payload, FrameTypeResponse)
	if err != nil {
		t.Fatalf("parseListTemplates: %v", err)
	}
	lt := resp.(*ListTemplatesResponse)
	if len(lt.TemplateIDs) != 2 || lt.TemplateIDs[0] != 10 || lt.TemplateIDs[1] != 20 {
		t.Errorf("TemplateIDs = %v, want [10 20]", lt.TemplateIDs)
	}
}

func TestParseIdentifyFound(t *testing.T) {
	payload := []byte{
		0xEC, 0x61, // identify_result = 0x61EC
		0, 0, // template_type (ignored)
		7, 0, // template_id
		3, 0, // tag
	}
	resp, err := parseIdentify(payload, FrameTypeResponse)
	if err != nil {
		t.Fatalf("parseIdentify: %v", err)
	}
	id := resp.(*IdentifyResponse)
	if !id.FingerFound {
		t.Fatal("expected FingerFound = true")
	}
	if id.TemplateID == nil || *id.TemplateID != 7 {
		t.Errorf("TemplateID = %v, want 7", id.TemplateID)
	}
	if id.Tag != 3 {
		t.Errorf("Tag = %d, want 3", id.Tag)
	}
}

func TestParseIdentifyNotFound(t *testing.T) {
	payload := []byte{0, 0, 0, 0, 0, 0, 9, 0}
	resp, err := parseIdentify(payload, FrameTypeResponse)
	if err != nil {
		t.Fatalf("parseIdentify: %v", err)
	}
	id := resp.(*IdentifyResponse)
	if id.FingerFound {
		t.Fatal("expected FingerFound = false")
	}
	if id.TemplateID != nil {
		t.Errorf("TemplateID = %v, want nil", id.TemplateID)
	}
}

func TestParseGetSystemConfigFlags(t *testing.T) {
	payload := make([]byte, 24)
	// sys_flags at [8:12] = 0x001 | 0x100
	payload[8] = 0x01
	payload[9] = 0x01
	payload[20] = 0x34
	payload[21] = 0x12

	resp, err := parseGetSystemConfig(payload, FrameTypeResponse)
	if err != nil {
		t.Fatalf("parseGetSystemConfig: %v", err)
	}
	cfg := resp.(*GetSystemConfigResponse)
	if !cfg.EventAtBoot {
		t.Error("expected EventAtBoot = true")
	}
	if !cfg.AllowFactoryReset {
		t.Error("expected AllowFactoryReset = true")
	}
	if cfg.UARTStopMode || cfg.IRQBeforeTX {
		t.Error("expected UARTStopMode and IRQBeforeTX = false")
	}
	if cfg.I2CAddress != 0x1234 {
		t.Errorf("I2CAddress = 0x%04x, want 0x1234", cfg.I2CAddress)
	}
}

func TestParseNavigationSampleCount(t *testing.T) {
	payload := []byte{
		1, 0, // gesture = NavEventUp
		3, 0, // n_samples = 3
		1, 0, 2, 0, 3, 0,
	}
	resp, err := parseNavigation(payload, FrameTypeEvent)
	if err != nil {
		t.Fatalf("parseNavigation: %v", err)
	}
	nav := resp.(*NavigationResponse)
	if nav.Gesture != NavEventUp {
		t.Errorf("Gesture = %v, want NavEventUp", nav.Gesture)
	}
	if len(nav.Samples) != 3 {
		t.Fatalf("Samples = %v, want length 3", nav.Samples)
	}
}

func TestParseVersionDecodesWholeRemainder(t *testing.T) {
	payload := make([]byte, 16+3)
	payload[12] = 5  // fw_id
	payload[13] = 1  // fuse_level
	copy(payload[16:], "1.0")

	resp, err := parseVersion(payload, FrameTypeResponse)
	if err != nil {
		t.Fatalf("parseVersion: %v", err)
	}
	v := resp.(*VersionResponse)
	if v.Version != "1.0" {
		t.Errorf("Version = %q, want %q", v.Version, "1.0")
	}
	if v.FWID != 5 || v.FuseLevel != 1 {
		t.Errorf("FWID/FuseLevel = %d/%d, want 5/1", v.FWID, v.FuseLevel)
	}
}

func TestUnknownCommandDecodeFails(t *testing.T) {
	codec := NewCodec(nil)
	h := header{version: frameVersion, typ: headerType, flags: flagAlways}
	inner := []byte{0xFF, 0xFF, 0x12, 0x00}
	h.length = uint16(len(inner))
	wire := append(h.marshal(), inner...)

	_, err := codec.Decode(wire)
	if err == nil {
		t.Fatal("expected decode error for unknown command")
	}
}
