package core

// BuiltinTemplateName is the reserved name of the template that always exists.
const BuiltinTemplateName = "標準テンプレート"

var defaultSchema = Schema{
	{
		ID:    "entrance",
		Title: "出入口・共用部",
		Items: []Item{
			{ID: "entrance-doors", Title: "出入口の施錠・開閉装置は正常に作動する", NotePlaceholder: "異音・鍵の固さなど気づいた点を記録"},
			{ID: "entrance-pathways", Title: "通路や避難経路に障害物がない", NotePlaceholder: "一時的な設置物がある場合は詳細に記載"},
			{ID: "entrance-lighting", Title: "共用部の照明は適切に点灯する", NotePlaceholder: "交換予定の照明があれば記載"},
		},
	},
	{
		ID:    "equipment",
		Title: "設備・機器",
		Items: []Item{
			{ID: "equipment-machinery", Title: "主要設備が取扱手順どおりに運転・停止できる", NotePlaceholder: "異常音/振動など"},
			{ID: "equipment-emergency", Title: "非常停止ボタン・ブレーカーへのアクセスが確保されている", NotePlaceholder: "遮蔽物の有無を記録"},
			{ID: "equipment-maintenance", Title: "点検記録・保守点検シールが最新である", NotePlaceholder: "期限切れのものを記載"},
		},
	},
	{
		ID:    "safety",
		Title: "防災・安全備品",
		Items: []Item{
			{ID: "safety-extinguisher", Title: "消火器・消火栓の設置位置と有効期限を確認した", NotePlaceholder: "交換予定・不備があれば記載"},
			{ID: "safety-emergency-exit", Title: "避難誘導灯・非常口標識が点灯し視認できる", NotePlaceholder: "不点灯箇所や暗い箇所を記録"},
			{ID: "safety-firstaid", Title: "救急箱の備品が揃っている", NotePlaceholder: "不足している備品を記録"},
		},
	},
	{
		ID:    "environment",
		Title: "環境・衛生",
		Items: []Item{
			{ID: "environment-cleanliness", Title: "作業エリア・床の清掃が行き届いている", NotePlaceholder: "油漏れ・濡れなど滑りやすい箇所の有無"},
			{ID: "environment-waste", Title: "廃棄物・資材が適切に区分・保管されている", NotePlaceholder: "一時保管物や改善予定を記録"},
			{ID: "environment-ppe", Title: "必要な保護具が劣化なく配置されている", NotePlaceholder: "交換必要な保護具を記録"},
		},
	},
}

// DefaultSchema returns a fresh copy of the bundled checklist.
func DefaultSchema() Schema {
	return defaultSchema.Clone()
}

// BuiltinTemplate returns the built-in template regenerated from the default.
func BuiltinTemplate() Template {
	return Template{Name: BuiltinTemplateName, Sections: DefaultSchema()}
}
