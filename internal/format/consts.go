// Package format houses low-level constants and decoders for the JVM class
// file format. The goal is to keep the byte-level knowledge focused and
// independent from the public API so higher-level packages can orchestrate
// the data in a more ergonomic form.
package format

const (
	// Magic is the four-byte signature at the start of every class file.
	// Layout (big-endian):
	//   0x00  0xCA 0xFE 0xBA 0xBE
	Magic = 0xCAFEBABE

	// MagicSize is the size of the magic number in bytes.
	MagicSize = 4

	// MinMajorVersion is the oldest class file major version the codec
	// accepts. 45 corresponds to JDK 1.0.2/1.1.
	MinMajorVersion = 45

	// MaxMajorVersion is the newest class file major version the codec
	// accepts. 61 corresponds to Java 17.
	MaxMajorVersion = 61

	// MajorVersionStackMaps is the first major version for which the JVM
	// verifier requires StackMapTable frames on branching code (Java 6).
	MajorVersionStackMaps = 50

	// MaxPoolEntries is the hard ceiling on constant pool entries. The pool
	// count field is a uint16 holding len+1, so at most 65534 usable entries.
	MaxPoolEntries = 65534
)

// Constant pool tags.
//
//	Tag  Entry               Payload
//	---  ------------------  ----------------------------------------
//	  1  Utf8                u16 length + modified-UTF-8 bytes
//	  3  Integer             u32 big-endian
//	  4  Float               u32 big-endian (IEEE 754)
//	  5  Long                u64 big-endian, occupies two pool slots
//	  6  Double              u64 big-endian, occupies two pool slots
//	  7  Class               u16 name index
//	  8  String              u16 utf8 index
//	  9  Fieldref            u16 class index + u16 name-and-type index
//	 10  Methodref           u16 class index + u16 name-and-type index
//	 11  InterfaceMethodref  u16 class index + u16 name-and-type index
//	 12  NameAndType         u16 name index + u16 descriptor index
//	 15  MethodHandle        u8 kind + u16 reference index
//	 16  MethodType          u16 descriptor index
//	 17  Dynamic             u16 bootstrap index + u16 name-and-type index
//	 18  InvokeDynamic       u16 bootstrap index + u16 name-and-type index
//	 19  Module              u16 name index
//	 20  Package             u16 name index
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagDynamic            = 17
	TagInvokeDynamic      = 18
	TagModule             = 19
	TagPackage            = 20
)

// Access flags shared by classes, fields, and methods.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccSuper     = 0x0020
	AccAbstract  = 0x0400
	AccSynthetic = 0x1000
)

// Well-known names and descriptors.
const (
	// ClinitName is the name of the class initializer method.
	ClinitName = "<clinit>"

	// ClinitDescriptor is the descriptor of the class initializer.
	ClinitDescriptor = "()V"

	// IntArrayDescriptor is the field descriptor for int[].
	IntArrayDescriptor = "[I"

	// LongDescriptor is the field descriptor for long.
	LongDescriptor = "J"

	// AttrCode through AttrStackMapTable name the well-known attributes. The
	// codec decodes only Code (on demand) and StackMapTable (when splicing a
	// prefix); every attribute, these included, is stored and written back
	// as opaque bytes.
	AttrCode             = "Code"
	AttrConstantValue    = "ConstantValue"
	AttrBootstrapMethods = "BootstrapMethods"
	AttrStackMapTable    = "StackMapTable"
)

// Opcodes used by the emitter, the reveal simulator, and the runtime runner,
// plus the general-form iload/lload/aload/istore/lstore/astore. The full
// instruction set is much larger; only this subset is named.
const (
	OpNop          = 0x00
	OpIconstM1     = 0x02
	OpIconst0      = 0x03
	OpIconst1      = 0x04
	OpIconst2      = 0x05
	OpIconst3      = 0x06
	OpIconst4      = 0x07
	OpIconst5      = 0x08
	OpLconst0      = 0x09
	OpBipush       = 0x10
	OpSipush       = 0x11
	OpLdc          = 0x12
	OpLdcW         = 0x13
	OpLdc2W        = 0x14
	OpIload        = 0x15
	OpLload        = 0x16
	OpAload        = 0x19
	OpIload3       = 0x1D
	OpLload0       = 0x1E
	OpAload2       = 0x2C
	OpIaload       = 0x2E
	OpIstore       = 0x36
	OpLstore       = 0x37
	OpAstore       = 0x3A
	OpIstore3      = 0x3E
	OpLstore0      = 0x3F
	OpAstore2      = 0x4D
	OpIastore      = 0x4F
	OpPop          = 0x57
	OpDup          = 0x59
	OpLmul         = 0x69
	OpLxor         = 0x83
	OpIinc         = 0x84
	OpI2l          = 0x85
	OpIfIcmpge     = 0xA2
	OpGoto         = 0xA7
	OpReturn       = 0xB1
	OpGetstatic    = 0xB2
	OpPutstatic    = 0xB3
	OpInvokestatic = 0xB8
	OpNewarray     = 0xBC
	OpArraylength  = 0xBE
)

// Newarray array-type operand for int[].
const ArrayTypeInt = 10

// Stack map frame type boundaries (JVMS 4.7.4).
const (
	FrameSameMax        = 63  // 0..63: same_frame
	FrameSameLocals1Min = 64  // 64..127: same_locals_1_stack_item_frame
	FrameSameLocals1Ext = 247 // same_locals_1_stack_item_frame_extended
	FrameChopMin        = 248 // 248..250: chop_frame
	FrameSameExtended   = 251 // same_frame_extended
	FrameAppendMin      = 252 // 252..254: append_frame (1..3 new locals)
	FrameFull           = 255 // full_frame
)

// Verification type tags used in stack map frames.
const (
	VerTop     = 0
	VerInteger = 1
	VerFloat   = 2
	VerDouble  = 3
	VerLong    = 4
	VerNull    = 5
	VerObject  = 7
)
