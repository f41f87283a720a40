package verify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
)

// runnerClass is the synthesized driver class presented to the host JVM. Its
// main method forces the target class through the loader and verifier via a
// Class constant, then optionally invokes the static entry point.
const runnerClass = "GhostRunner"

// Gateway runs classes through a host JVM. The zero value uses the java
// binary from PATH and discards logs.
type Gateway struct {
	JavaPath string
	Log      *zap.Logger
}

// NewGateway returns a Gateway using the given java binary. An empty path
// falls back to "java" from PATH; a nil logger is replaced with a no-op one.
func NewGateway(javaPath string, log *zap.Logger) *Gateway {
	return &Gateway{JavaPath: javaPath, Log: log}
}

func (g *Gateway) java() string {
	if g.JavaPath != "" {
		return g.JavaPath
	}
	return "java"
}

func (g *Gateway) log() *zap.Logger {
	if g.Log != nil {
		return g.Log
	}
	return zap.NewNop()
}

// Structural reports whether classBytes is well-formed. It is the method form
// of the package-level Structural check.
func (g *Gateway) Structural(classBytes []byte) error {
	return Structural(classBytes)
}

// Runtime writes classBytes into a fresh scratch directory, loads the class
// in a host JVM, and optionally invokes the named public static no-argument
// entry point. The scratch directory is removed on every exit path; errors
// carry the JVM's diagnostic output.
func (g *Gateway) Runtime(ctx context.Context, classBytes []byte, className, entryPoint string) error {
	if className == "" {
		return fmt.Errorf("verify: class name required for runtime check")
	}

	scratch, err := os.MkdirTemp("", "ghost-verify-")
	if err != nil {
		return fmt.Errorf("verify: scratch dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			g.log().Warn("scratch cleanup failed", zap.String("dir", scratch), zap.Error(rmErr))
		}
	}()

	classPath := filepath.Join(scratch, filepath.FromSlash(className)+".class")
	if err := os.MkdirAll(filepath.Dir(classPath), 0o755); err != nil {
		return fmt.Errorf("verify: scratch layout: %w", err)
	}
	if err := os.WriteFile(classPath, classBytes, 0o644); err != nil {
		return fmt.Errorf("verify: write class: %w", err)
	}

	runner, err := buildRunner(className, entryPoint)
	if err != nil {
		return fmt.Errorf("verify: build runner: %w", err)
	}
	if err := os.WriteFile(filepath.Join(scratch, runnerClass+".class"), runner, 0o644); err != nil {
		return fmt.Errorf("verify: write runner: %w", err)
	}

	g.log().Debug("running host verifier",
		zap.String("dir", scratch),
		zap.String("class", className),
		zap.String("entry", entryPoint))

	cmd := exec.CommandContext(ctx, g.java(), "-cp", scratch, runnerClass)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("verify: host rejected class: %w: %s", err, out)
	}
	return nil
}

// buildRunner synthesizes the driver class through the codec:
//
//	public class GhostRunner {
//	    public static void main(String[] args) {
//	        Object c = <target>.class;   // forces load + verify
//	        <target>.<entryPoint>();     // when an entry point is given
//	    }
//	}
func buildRunner(className, entryPoint string) ([]byte, error) {
	pool := &classfile.ConstPool{}

	thisIdx, err := pool.InternClass(runnerClass)
	if err != nil {
		return nil, err
	}
	superIdx, err := pool.InternClass("java/lang/Object")
	if err != nil {
		return nil, err
	}
	targetIdx, err := pool.InternClass(className)
	if err != nil {
		return nil, err
	}

	var code []byte
	if targetIdx <= 0xFF {
		code = append(code, format.OpLdc, byte(targetIdx))
	} else {
		code = append(code, format.OpLdcW, byte(targetIdx>>8), byte(targetIdx))
	}
	code = append(code, format.OpPop)
	if entryPoint != "" {
		entryRef, err := pool.InternMethodref(className, entryPoint, "()V")
		if err != nil {
			return nil, err
		}
		code = append(code, format.OpInvokestatic, byte(entryRef>>8), byte(entryRef))
	}
	code = append(code, format.OpReturn)

	codeName, err := pool.InternUtf8(format.AttrCode)
	if err != nil {
		return nil, err
	}
	mainName, err := pool.InternUtf8("main")
	if err != nil {
		return nil, err
	}
	mainDesc, err := pool.InternUtf8("([Ljava/lang/String;)V")
	if err != nil {
		return nil, err
	}

	body := &classfile.Code{MaxStack: 1, MaxLocals: 1, Bytecode: code}
	cf := &classfile.ClassFile{
		MinorVersion: 0,
		MajorVersion: 52,
		Pool:         pool,
		AccessFlags:  format.AccPublic | format.AccSuper,
		ThisClass:    thisIdx,
		SuperClass:   superIdx,
		Methods: []classfile.Member{{
			AccessFlags:     format.AccPublic | format.AccStatic,
			NameIndex:       mainName,
			DescriptorIndex: mainDesc,
			Attributes:      []classfile.Attribute{{NameIndex: codeName, Info: body.Encode()}},
		}},
	}
	return classfile.Serialize(cf), nil
}
