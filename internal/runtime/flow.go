package runtime

// Variant selects which image a run builds.
type Variant string

const (
	VariantSDK      Variant = "sdk"
	VariantAdvanced Variant = "advanced-security"
)

func ResolveVariant(opts Options) Variant {
	if opts.AdvancedSecurity {
		return VariantAdvanced
	}
	return VariantSDK
}

// Stage names the steps of a run, in order.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageCheck   Stage = "check"
	StageTags    Stage = "tags"
	StageBuild   Stage = "build"
	StageVerify  Stage = "verify"
	StageReport  Stage = "report"
	StageRelease Stage = "release"
)

// Stages returns the stages this run will execute. Check and release are
// opt-out / opt-in respectively; verify only applies to local loads.
func Stages(c Context) []Stage {
	stages := []Stage{StageResolve}
	if !c.Options.SkipPackageCheck {
		stages = append(stages, StageCheck)
	}
	stages = append(stages, StageTags, StageBuild)
	if !c.Options.Push && !c.DryRun {
		stages = append(stages, StageVerify)
	}
	stages = append(stages, StageReport)
	if c.Options.Release {
		stages = append(stages, StageRelease)
	}
	return stages
}
