package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.class>",
	Short: "Print the structure of a class file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

// inspectVisitor prints the class header and pool size, then one line per
// field, method, and class-level attribute as the codec walks the class.
type inspectVisitor struct {
	classfile.NopVisitor
	cf *classfile.ClassFile
}

func (v *inspectVisitor) VisitClass(cf *classfile.ClassFile) {
	name, _ := cf.ThisClassName()
	fmt.Printf("class %s (version %d.%d, access 0x%04X)\n",
		name, cf.MajorVersion, cf.MinorVersion, cf.AccessFlags)
	fmt.Printf("  constant pool: %d slots\n", cf.Pool.Slots())
}

func (v *inspectVisitor) VisitField(f *classfile.Member) {
	name, _ := v.cf.Pool.Utf8(f.NameIndex)
	desc, _ := v.cf.Pool.Utf8(f.DescriptorIndex)
	fmt.Printf("  field  %-20s %s (access 0x%04X)\n", name, desc, f.AccessFlags)
}

func (v *inspectVisitor) VisitMethod(m *classfile.Member) {
	name, _ := v.cf.Pool.Utf8(m.NameIndex)
	desc, _ := v.cf.Pool.Utf8(m.DescriptorIndex)
	fmt.Printf("  method %-20s %s (access 0x%04X)\n", name, desc, m.AccessFlags)
}

func (v *inspectVisitor) VisitAttribute(a *classfile.Attribute) {
	name, _ := v.cf.AttributeName(a)
	fmt.Printf("  attribute %s (%d bytes)\n", name, len(a.Info))
}

func runInspect(_ *cobra.Command, args []string) error {
	classBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read class: %w", err)
	}
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return err
	}
	classfile.Accept(cf, &inspectVisitor{cf: cf})
	return nil
}
