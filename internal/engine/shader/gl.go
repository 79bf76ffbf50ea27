package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GLCompiler builds programs on the current OpenGL context. It must be used
// from the thread owning the context.
type GLCompiler struct{}

// Compile compiles the vertex and fragment stages and links them.
func (GLCompiler) Compile(src Source) (Program, error) {
	vert, err := compileStage(inject(src.Vertex, src.Defines), gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vert)

	frag, err := compileStage(inject(src.Fragment, src.Defines), gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(frag)

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link %s: %s", src.Name, strings.TrimRight(string(log), "\x00"))
	}

	return Program(program), nil
}

// Delete frees a linked program.
func (GLCompiler) Delete(p Program) {
	if p != 0 {
		gl.DeleteProgram(uint32(p))
	}
}

// inject inserts #define lines after the #version directive.
func inject(source string, defines []string) string {
	if len(defines) == 0 {
		return source
	}
	var b strings.Builder
	for _, d := range defines {
		b.WriteString("#define ")
		b.WriteString(d)
		b.WriteByte('\n')
	}
	if strings.HasPrefix(source, "#version") {
		if nl := strings.IndexByte(source, '\n'); nl >= 0 {
			return source[:nl+1] + b.String() + source[nl+1:]
		}
	}
	return b.String() + source
}

func compileStage(source string, stage uint32, name string) (uint32, error) {
	shader := gl.CreateShader(stage)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00"))
	}

	return shader, nil
}

// GLUploader pushes parameter blocks to their programs, caching uniform
// locations per program.
type GLUploader struct {
	locations map[Program]map[string]int32
}

// NewGLUploader creates an uploader with an empty location cache.
func NewGLUploader() *GLUploader {
	return &GLUploader{locations: make(map[Program]map[string]int32)}
}

// Use binds the instance program and uploads its parameters. It returns
// false when the instance has no program.
func (u *GLUploader) Use(inst *Instance) bool {
	p := inst.Program()
	if p == 0 {
		return false
	}
	gl.UseProgram(uint32(p))
	for _, name := range inst.Params.FloatNames() {
		v, _ := inst.Params.Float(name)
		if loc := u.Location(p, name); loc >= 0 {
			gl.Uniform1f(loc, v)
		}
	}
	for _, name := range inst.Params.Vec3Names() {
		v, _ := inst.Params.Vec3(name)
		if loc := u.Location(p, name); loc >= 0 {
			gl.Uniform3f(loc, v[0], v[1], v[2])
		}
	}
	return true
}

// Location returns the cached uniform location, or -1 when the program has
// no active uniform of that name.
func (u *GLUploader) Location(p Program, name string) int32 {
	locs, ok := u.locations[p]
	if !ok {
		locs = make(map[string]int32)
		u.locations[p] = locs
	}
	if loc, ok := locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	locs[name] = loc
	return loc
}

// Forget drops cached locations of a deleted program.
func (u *GLUploader) Forget(p Program) {
	delete(u.locations, p)
}
