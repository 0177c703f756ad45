package framegraph

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *Graph)
		want  []error
	}{
		{
			name: "clean",
			build: func(g *Graph) {
				var tex TextureRef
				g.AddPass(PassDesc{Name: "W"}, func(b *PassBuilder) {
					tex = b.WriteTexture(b.CreateTexture(colorDesc("t")), StateRenderTarget)
				})
				g.AddPass(PassDesc{Name: "R"}, func(b *PassBuilder) {
					b.ReadTexture(tex, StateShaderResource)
				})
			},
		},
		{
			name: "read before write",
			build: func(g *Graph) {
				g.AddPass(PassDesc{Name: "R"}, func(b *PassBuilder) {
					b.ReadTexture(b.CreateTexture(colorDesc("t")), StateShaderResource)
					b.ReadBuffer(b.CreateBuffer(bufferDesc("b")), StateCommon)
				})
			},
			want: []error{ErrReadBeforeWrite, ErrReadBeforeWrite},
		},
		{
			name: "imports count as written",
			build: func(g *Graph) {
				tex := g.ImportTexture(&externalTexture{}, StateShaderResource)
				buf := g.ImportBuffer(&externalBuffer{}, StateCommon)
				g.AddPass(PassDesc{Name: "R"}, func(b *PassBuilder) {
					b.ReadTexture(tex, StateShaderResource)
					b.ReadBuffer(buf, StateCommon)
				})
			},
		},
		{
			name: "invalid attachments",
			build: func(g *Graph) {
				g.AddPass(PassDesc{Name: "P"}, func(b *PassBuilder) {
					b.SetRenderTargets([]RenderTargetBinding{{RTV: RTVRef{ID: 3}}}, &DepthStencilBinding{})
				})
			},
			want: []error{ErrInvalidAttachment, ErrInvalidAttachment},
		},
		{
			name: "view of invalid resource",
			build: func(g *Graph) {
				g.AddPass(PassDesc{Name: "P"}, func(b *PassBuilder) {
					b.CreateTextureSRV(TextureRef{}, ShaderResourceViewDescriptor{})
					b.CreateBufferUAV(BufferRef{ID: 4}, UnorderedAccessViewDescriptor{})
				})
			},
			want: []error{ErrViewOfInvalidTable, ErrViewOfInvalidTable},
		},
		{
			name: "unwritten external output",
			build: func(g *Graph) {
				g.AddPass(PassDesc{Name: "P"}, func(b *PassBuilder) {
					b.SetExternalOutput(b.CreateTexture(colorDesc("out")), StatePresent)
				})
			},
			want: []error{ErrUnwrittenOutput},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(newFakeDevice())
			g.BeginFrame(1)
			defer g.EndFrame()
			tt.build(g)

			err := g.Validate()
			if len(tt.want) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want errors")
			}
			joined, ok := err.(interface{ Unwrap() []error })
			if !ok {
				t.Fatalf("Validate() returned %T, want joined error", err)
			}
			got := joined.Unwrap()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d errors (%v), want %d", len(got), err, len(tt.want))
			}
			for i, w := range tt.want {
				if !errors.Is(got[i], w) {
					t.Errorf("error %d = %v, want %v", i, got[i], w)
				}
				var ve *ValidationError
				if !errors.As(got[i], &ve) {
					t.Errorf("error %d is %T, want *ValidationError", i, got[i])
				}
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	e := &ValidationError{Pass: "Lighting", Err: ErrReadBeforeWrite, Detail: "texture 2 (albedo)"}
	want := `framegraph: pass "Lighting": texture 2 (albedo): read before any write`
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}
}

func TestWithValidationLogsAtCompile(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	g := New(newFakeDevice(), WithLogger(l), WithValidation(true))
	g.BeginFrame(1)
	g.AddPass(PassDesc{Name: "R"}, func(b *PassBuilder) {
		b.ReadTexture(b.CreateTexture(colorDesc("t")), StateShaderResource)
	})
	g.Compile()
	g.EndFrame()

	if !strings.Contains(buf.String(), "validation failed") {
		t.Errorf("expected validation warning, got: %s", buf.String())
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{PassRaster.String(), "Raster"},
		{PassCopy.String(), "Copy"},
		{PassType(9).String(), "Unknown"},
		{QueueCompute.String(), "Compute"},
		{StateDepthWrite.String(), "DepthWrite"},
		{ResourceState(200).String(), "Unknown"},
		{PassFlags(0).String(), "None"},
		{(PassFlagNeverCull | PassFlagExternalOutput).String(), "NeverCull|ExternalOutput"},
		{PassFlags(0x81).String(), "NeverCull|0x80"},
		{PassFlags(0x06).String(), "ExternalOutput|0x04"},
		{ResourceBuffer.String(), "Buffer"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
