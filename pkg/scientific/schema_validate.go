package scientific

// ValidateSchema collects every structural problem in b. An empty result
// means the bundle may go on to epistemic validation.
func ValidateSchema(b Bundle) []string {
	var errs []string

	if v, ok := b.SchemaVersion(); !ok {
		errs = append(errs, "schemaVersion ausente ou inválido")
	} else if v != SchemaVersion {
		errs = append(errs, "schemaVersion incompatível")
	}

	if profile, ok := b.Object("sourceProfile"); !ok {
		errs = append(errs, "sourceProfile ausente ou inválido")
	} else {
		for _, field := range ProfileFields {
			v, ok := stringField(profile, field)
			if !ok || !contains(ProfileEnums[field], v) {
				errs = append(errs, field+" inválido")
			}
		}
	}

	for _, key := range RequiredArrays {
		if _, ok := b.Array(key); !ok {
			errs = append(errs, key+" ausente ou inválido")
		}
	}

	if arr, ok := b.Array("allegedMechanisms"); ok {
		for _, m := range objects(arr) {
			if v, _ := stringField(m, "status"); !contains(MechanismStatus, v) {
				errs = append(errs, "allegedMechanisms.status inválido")
				break
			}
		}
	}
	if arr, ok := b.Array("baselineAssumptions"); ok {
		for _, a := range objects(arr) {
			if v, _ := stringField(a, "baselineType"); !contains(BaselineTypes, v) {
				errs = append(errs, "baselineAssumptions.baselineType inválido")
				break
			}
		}
	}

	if layers, ok := b.Object("interpretationLayers"); !ok {
		errs = append(errs, "interpretationLayers ausente ou inválido")
	} else {
		for _, key := range InterpretationLayerKeys {
			if _, ok := layers[key].([]interface{}); !ok {
				errs = append(errs, "interpretationLayers."+key+" inválido")
			}
		}
	}

	if raw, present := b["discursiveContext"]; present {
		dc, ok := raw.(map[string]interface{})
		if !ok {
			errs = append(errs, "discursiveContext deve ser um objeto")
		} else if frames, present := dc["frames"]; present {
			if _, ok := frames.([]interface{}); !ok {
				errs = append(errs, "discursiveContext.frames deve ser array")
			}
		}
	}
	if raw, present := b["discursiveSystem"]; present {
		ds, ok := raw.(map[string]interface{})
		if !ok {
			errs = append(errs, "discursiveSystem deve ser um objeto")
		} else {
			for _, key := range DiscursiveSystemArrays {
				if v, present := ds[key]; present {
					if _, ok := v.([]interface{}); !ok {
						errs = append(errs, "discursiveSystem."+key+" deve ser array")
					}
				}
			}
		}
	}
	return errs
}
