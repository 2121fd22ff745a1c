package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/roach88/planwire/internal/plan"
)

// Decode parses wire bytes into a relation tree. The result is structurally
// sound (well-formed protobuf, recognized variants, single oneof population)
// but not yet semantically checked; run the validator before handing the
// tree to a consumer.
func Decode(data []byte, opts ...Option) (*plan.Relation, error) {
	d := &decoder{config: newConfig(opts)}
	return d.relation(data, 1, nil)
}

type decoder struct {
	config config
}

func (d *decoder) depthCheck(depth int, path plan.Path) error {
	if depth > d.config.maxDepth {
		return &DecodeError{
			Code:    CodeDepthExceeded,
			Path:    path,
			Message: fmt.Sprintf("input nests deeper than maximum depth %d", d.config.maxDepth),
		}
	}
	return nil
}

func (d *decoder) malformed(path plan.Path, format string, args ...any) error {
	return &DecodeError{Code: CodeMalformed, Path: path, Message: fmt.Sprintf(format, args...)}
}

func (d *decoder) relation(data []byte, depth int, path plan.Path) (*plan.Relation, error) {
	if err := d.depthCheck(depth, path); err != nil {
		return nil, err
	}
	rel := &plan.Relation{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, d.malformed(path, "invalid field tag")
		}
		data = data[n:]

		if num == relCommonTag {
			body, m, err := d.bytesVal(data, typ, path, "common")
			if err != nil {
				return nil, err
			}
			data = data[m:]
			common, err := d.relationCommon(body, path)
			if err != nil {
				return nil, err
			}
			rel.Common = common
			continue
		}

		body, m, err := d.bytesVal(data, typ, path, "rel_type")
		if err != nil {
			return nil, err
		}
		data = data[m:]

		var variant plan.RelType
		switch num {
		case relReadTag:
			variant, err = d.read(body, depth, path)
		case relProjectTag:
			variant, err = d.project(body, depth, path)
		case relFilterTag:
			variant, err = d.filter(body, depth, path)
		case relJoinTag:
			variant, err = d.join(body, depth, path)
		case relSetOpTag:
			variant, err = d.setOperation(body, depth, path)
		case relSortTag:
			variant, err = d.sort(body, depth, path)
		case relLimitTag:
			variant, err = d.limit(body, depth, path)
		case relOffsetTag:
			variant, err = d.offset(body, depth, path)
		case relAggregateTag:
			variant, err = d.aggregate(body, depth, path)
		case relSQLTag:
			variant, err = d.sql(body, path)
		case relLocalTag:
			variant, err = d.localRelation(body, depth, path)
		case relSampleTag:
			variant, err = d.sample(body, depth, path)
		case relRangeTag:
			variant, err = d.rangeRel(body, path)
		case relSubqueryTag:
			variant, err = d.subqueryAlias(body, depth, path)
		case relRepartitionTag:
			variant, err = d.repartition(body, depth, path)
		case relRenameSameTag:
			variant, err = d.renameSame(body, depth, path)
		case relRenameMapTag:
			variant, err = d.renameMap(body, depth, path)
		case relShowStringTag:
			variant, err = d.showString(body, depth, path)
		case relFillNATag:
			variant, err = d.naFill(body, depth, path)
		case relSummaryTag:
			variant, err = d.statSummary(body, depth, path)
		case relCrosstabTag:
			variant, err = d.statCrosstab(body, depth, path)
		case relUnknownTag:
			variant = &plan.Unknown{}
		default:
			return nil, &DecodeError{
				Code:    CodeUnsupportedVariant,
				Path:    path,
				Message: fmt.Sprintf("unrecognized relation variant tag %d", num),
			}
		}
		if err != nil {
			return nil, err
		}
		if rel.Rel != nil {
			return nil, &DecodeError{
				Code:    CodeOneofMultiSet,
				Path:    path,
				Message: fmt.Sprintf("relation variants %s and %s both populated", rel.Rel.Name(), variant.Name()),
			}
		}
		rel.Rel = variant
	}
	return rel, nil
}

func (d *decoder) relationCommon(data []byte, path plan.Path) (*plan.RelationCommon, error) {
	common := &plan.RelationCommon{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, d.malformed(path, "invalid field tag in common")
		}
		data = data[n:]
		switch num {
		case 1:
			s, m, err := d.stringVal(data, typ, path, "source_info")
			if err != nil {
				return nil, err
			}
			data = data[m:]
			common.SourceInfo = s
		default:
			m, err := d.skip(data, num, typ, path)
			if err != nil {
				return nil, err
			}
			data = data[m:]
		}
	}
	return common, nil
}

func (d *decoder) read(data []byte, depth int, path plan.Path) (*plan.Read, error) {
	v := &plan.Read{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			body, m, err := d.bytesVal(data, typ, path, "named_table")
			if err != nil {
				return 0, err
			}
			nt := &plan.NamedTable{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				if num == 1 {
					s, m, err := d.stringVal(data, typ, path, "unparsed_identifier")
					nt.UnparsedIdentifier = s
					return m, err
				}
				return d.skip(data, num, typ, path)
			})
			if err != nil {
				return 0, err
			}
			v.NamedTable = nt
			return m, nil
		case 2:
			body, m, err := d.bytesVal(data, typ, path, "data_source")
			if err != nil {
				return 0, err
			}
			ds := &plan.DataSource{}
			err = d.fields(body, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					s, m, err := d.stringVal(data, typ, path, "format")
					ds.Format = s
					return m, err
				case 2:
					s, m, err := d.stringVal(data, typ, path, "schema")
					ds.Schema = s
					return m, err
				case 3:
					key, val, m, err := d.stringMapEntry(data, typ, path, "options")
					if err != nil {
						return 0, err
					}
					if ds.Options == nil {
						ds.Options = make(map[string]string)
					}
					ds.Options[key] = val
					return m, nil
				default:
					return d.skip(data, num, typ, path)
				}
			})
			if err != nil {
				return 0, err
			}
			v.DataSource = ds
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) project(data []byte, depth int, path plan.Path) (*plan.Project, error) {
	v := &plan.Project{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 3:
			ex, m, err := d.childExpression(data, typ, depth, path.ChildIndex(v.Name(), "expressions", len(v.Expressions)))
			if err != nil {
				return 0, err
			}
			v.Expressions = append(v.Expressions, ex)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) filter(data []byte, depth int, path plan.Path) (*plan.Filter, error) {
	v := &plan.Filter{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			ex, m, err := d.childExpression(data, typ, depth, path.Child(v.Name(), "condition"))
			v.Condition = ex
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) join(data []byte, depth int, path plan.Path) (*plan.Join, error) {
	v := &plan.Join{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "left"), &v.Left)
		case 2:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "right"), &v.Right)
		case 3:
			ex, m, err := d.childExpression(data, typ, depth, path.Child(v.Name(), "join_condition"))
			v.JoinCondition = ex
			return m, err
		case 4:
			raw, m, err := d.varint(data, typ, path, "join_type")
			v.JoinType = plan.JoinType(int32(int64(raw)))
			return m, err
		case 5:
			s, m, err := d.stringVal(data, typ, path, "using_columns")
			if err != nil {
				return 0, err
			}
			v.UsingColumns = append(v.UsingColumns, s)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) setOperation(data []byte, depth int, path plan.Path) (*plan.SetOperation, error) {
	v := &plan.SetOperation{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "left_input"), &v.LeftInput)
		case 2:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "right_input"), &v.RightInput)
		case 3:
			raw, m, err := d.varint(data, typ, path, "set_op_type")
			v.SetOpType = plan.SetOpType(int32(int64(raw)))
			return m, err
		case 4:
			raw, m, err := d.varint(data, typ, path, "is_all")
			v.IsAll = raw != 0
			return m, err
		case 5:
			raw, m, err := d.varint(data, typ, path, "by_name")
			v.ByName = raw != 0
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) sort(data []byte, depth int, path plan.Path) (*plan.Sort, error) {
	v := &plan.Sort{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			fieldPath := path.ChildIndex(v.Name(), "sort_fields", len(v.SortFields))
			body, m, err := d.bytesVal(data, typ, path, "sort_fields")
			if err != nil {
				return 0, err
			}
			sf := plan.SortField{}
			err = d.fields(body, fieldPath, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					ex, m, err := d.childExpression(data, typ, depth, fieldPath)
					sf.Expression = ex
					return m, err
				case 2:
					raw, m, err := d.varint(data, typ, fieldPath, "direction")
					sf.Direction = plan.SortDirection(int32(int64(raw)))
					return m, err
				case 3:
					raw, m, err := d.varint(data, typ, fieldPath, "nulls")
					sf.Nulls = plan.NullOrdering(int32(int64(raw)))
					return m, err
				default:
					return d.skip(data, num, typ, fieldPath)
				}
			})
			if err != nil {
				return 0, err
			}
			v.SortFields = append(v.SortFields, sf)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) limit(data []byte, depth int, path plan.Path) (*plan.Limit, error) {
	v := &plan.Limit{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			raw, m, err := d.varint(data, typ, path, "limit")
			v.Limit = int32(int64(raw))
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) offset(data []byte, depth int, path plan.Path) (*plan.Offset, error) {
	v := &plan.Offset{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			raw, m, err := d.varint(data, typ, path, "offset")
			v.Offset = int32(int64(raw))
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) aggregate(data []byte, depth int, path plan.Path) (*plan.Aggregate, error) {
	v := &plan.Aggregate{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			ex, m, err := d.childExpression(data, typ, depth, path.ChildIndex(v.Name(), "grouping_expressions", len(v.GroupingExpressions)))
			if err != nil {
				return 0, err
			}
			v.GroupingExpressions = append(v.GroupingExpressions, ex)
			return m, nil
		case 3:
			ex, m, err := d.childExpression(data, typ, depth, path.ChildIndex(v.Name(), "result_expressions", len(v.ResultExpressions)))
			if err != nil {
				return 0, err
			}
			v.ResultExpressions = append(v.ResultExpressions, ex)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) sql(data []byte, path plan.Path) (*plan.SQL, error) {
	v := &plan.SQL{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		if num == 1 {
			s, m, err := d.stringVal(data, typ, path, "query")
			v.Query = s
			return m, err
		}
		return d.skip(data, num, typ, path)
	})
	return v, err
}

func (d *decoder) localRelation(data []byte, depth int, path plan.Path) (*plan.LocalRelation, error) {
	v := &plan.LocalRelation{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			attrPath := path.ChildIndex(v.Name(), "attributes", len(v.Attributes))
			body, m, err := d.bytesVal(data, typ, path, "attributes")
			if err != nil {
				return 0, err
			}
			attr := plan.QualifiedAttribute{}
			err = d.fields(body, attrPath, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
				switch num {
				case 1:
					s, m, err := d.stringVal(data, typ, attrPath, "name")
					attr.Name = s
					return m, err
				case 2:
					body, m, err := d.bytesVal(data, typ, attrPath, "type")
					if err != nil {
						return 0, err
					}
					t, err := d.dataType(body, depth+1, attrPath)
					attr.Type = t
					return m, err
				default:
					return d.skip(data, num, typ, attrPath)
				}
			})
			if err != nil {
				return 0, err
			}
			v.Attributes = append(v.Attributes, attr)
			return m, nil
		case 2:
			litPath := path.ChildIndex(v.Name(), "data", len(v.Data))
			body, m, err := d.bytesVal(data, typ, path, "data")
			if err != nil {
				return 0, err
			}
			lit, err := d.literal(body, depth+1, litPath)
			if err != nil {
				return 0, err
			}
			v.Data = append(v.Data, lit)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) sample(data []byte, depth int, path plan.Path) (*plan.Sample, error) {
	v := &plan.Sample{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			raw, m, err := d.fixed64(data, typ, path, "lower_bound")
			v.LowerBound = math.Float64frombits(raw)
			return m, err
		case 3:
			raw, m, err := d.fixed64(data, typ, path, "upper_bound")
			v.UpperBound = math.Float64frombits(raw)
			return m, err
		case 4:
			raw, m, err := d.varint(data, typ, path, "with_replacement")
			v.WithReplacement = raw != 0
			return m, err
		case 5:
			raw, m, err := d.varint(data, typ, path, "seed")
			seed := int64(raw)
			v.Seed = &seed
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) rangeRel(data []byte, path plan.Path) (*plan.Range, error) {
	v := &plan.Range{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			raw, m, err := d.varint(data, typ, path, "start")
			start := int64(raw)
			v.Start = &start
			return m, err
		case 2:
			raw, m, err := d.varint(data, typ, path, "end")
			end := int64(raw)
			v.End = &end
			return m, err
		case 3:
			raw, m, err := d.varint(data, typ, path, "step")
			v.Step = int64(raw)
			return m, err
		case 4:
			raw, m, err := d.varint(data, typ, path, "num_partitions")
			np := int32(int64(raw))
			v.NumPartitions = &np
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) subqueryAlias(data []byte, depth int, path plan.Path) (*plan.SubqueryAlias, error) {
	v := &plan.SubqueryAlias{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			s, m, err := d.stringVal(data, typ, path, "alias")
			v.Alias = s
			return m, err
		case 3:
			s, m, err := d.stringVal(data, typ, path, "qualifier")
			if err != nil {
				return 0, err
			}
			v.Qualifier = append(v.Qualifier, s)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) repartition(data []byte, depth int, path plan.Path) (*plan.Repartition, error) {
	v := &plan.Repartition{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			raw, m, err := d.varint(data, typ, path, "num_partitions")
			v.NumPartitions = int32(int64(raw))
			return m, err
		case 3:
			raw, m, err := d.varint(data, typ, path, "shuffle")
			v.Shuffle = raw != 0
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) renameSame(data []byte, depth int, path plan.Path) (*plan.RenameColumnsBySameLengthNames, error) {
	v := &plan.RenameColumnsBySameLengthNames{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			s, m, err := d.stringVal(data, typ, path, "column_names")
			if err != nil {
				return 0, err
			}
			v.ColumnNames = append(v.ColumnNames, s)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) renameMap(data []byte, depth int, path plan.Path) (*plan.RenameColumnsByNameToNameMap, error) {
	v := &plan.RenameColumnsByNameToNameMap{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			key, val, m, err := d.stringMapEntry(data, typ, path, "rename_columns_map")
			if err != nil {
				return 0, err
			}
			if v.RenameColumnsMap == nil {
				v.RenameColumnsMap = make(map[string]string)
			}
			v.RenameColumnsMap[key] = val
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) showString(data []byte, depth int, path plan.Path) (*plan.ShowString, error) {
	v := &plan.ShowString{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			raw, m, err := d.varint(data, typ, path, "num_rows")
			v.NumRows = int32(int64(raw))
			return m, err
		case 3:
			raw, m, err := d.varint(data, typ, path, "truncate")
			v.Truncate = int32(int64(raw))
			return m, err
		case 4:
			raw, m, err := d.varint(data, typ, path, "vertical")
			v.Vertical = raw != 0
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) naFill(data []byte, depth int, path plan.Path) (*plan.NAFill, error) {
	v := &plan.NAFill{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			s, m, err := d.stringVal(data, typ, path, "cols")
			if err != nil {
				return 0, err
			}
			v.Cols = append(v.Cols, s)
			return m, nil
		case 3:
			litPath := path.ChildIndex(v.Name(), "values", len(v.Values))
			body, m, err := d.bytesVal(data, typ, path, "values")
			if err != nil {
				return 0, err
			}
			lit, err := d.literal(body, depth+1, litPath)
			if err != nil {
				return 0, err
			}
			v.Values = append(v.Values, lit)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) statSummary(data []byte, depth int, path plan.Path) (*plan.StatSummary, error) {
	v := &plan.StatSummary{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			s, m, err := d.stringVal(data, typ, path, "statistics")
			if err != nil {
				return 0, err
			}
			v.Statistics = append(v.Statistics, s)
			return m, nil
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}

func (d *decoder) statCrosstab(data []byte, depth int, path plan.Path) (*plan.StatCrosstab, error) {
	v := &plan.StatCrosstab{}
	err := d.fields(data, path, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		switch num {
		case 1:
			return d.childRelation(data, typ, depth, path.Child(v.Name(), "input"), &v.Input)
		case 2:
			s, m, err := d.stringVal(data, typ, path, "col1")
			v.Col1 = s
			return m, err
		case 3:
			s, m, err := d.stringVal(data, typ, path, "col2")
			v.Col2 = s
			return m, err
		default:
			return d.skip(data, num, typ, path)
		}
	})
	return v, err
}
